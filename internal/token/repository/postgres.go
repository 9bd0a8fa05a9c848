package repository

import (
	"context"
	"database/sql"

	"feedhunt/internal/token"
)

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Create(ctx context.Context, c *token.Credential) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO credentials (user_id, secret_hash, purpose, expires_at)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		c.UserID, c.SecretHash, c.Purpose, c.ExpiresAt).
		Scan(&c.ID, &c.CreatedAt)
}

func (r *CredentialRepository) GetByID(ctx context.Context, id int64) (*token.Credential, error) {
	c := &token.Credential{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, secret_hash, purpose, expires_at, created_at
		 FROM credentials WHERE id = $1`,
		id).Scan(&c.ID, &c.UserID, &c.SecretHash, &c.Purpose, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE id = $1`, id)
	return err
}

func (r *CredentialRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE user_id = $1`, userID)
	return err
}

func (r *CredentialRepository) DeleteByUserAndPurpose(ctx context.Context, userID int64, purpose string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE user_id = $1 AND purpose = $2`,
		userID, purpose)
	return err
}
