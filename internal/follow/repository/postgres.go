package repository

import (
	"context"
	"database/sql"

	"feedhunt/internal/follow"
)

type FollowRepository struct {
	db *sql.DB
}

func NewFollowRepository(db *sql.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Attach идемпотентен: повторная подписка гасится составным PK.
func (r *FollowRepository) Attach(ctx context.Context, followerID, followingID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)
		 ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID)
	return err
}

func (r *FollowRepository) Detach(ctx context.Context, followerID, followingID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	return err
}

// ListUsers — все пользователи кроме самого, с флагом is_following.
func (r *FollowRepository) ListUsers(ctx context.Context, currentUserID int64) ([]*follow.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name,
		        EXISTS(SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.following_id = u.id)
		 FROM users u WHERE u.id != $1 ORDER BY u.id`,
		currentUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*follow.UserSummary{}
	for rows.Next() {
		u := &follow.UserSummary{}
		if err := rows.Scan(&u.ID, &u.Name, &u.IsFollowing); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *FollowRepository) Following(ctx context.Context, userID int64) ([]*follow.UserSummary, error) {
	return r.listRelated(ctx,
		`SELECT u.id, u.name, u.email FROM users u
		 JOIN follows f ON f.following_id = u.id
		 WHERE f.follower_id = $1 ORDER BY u.id`,
		userID)
}

func (r *FollowRepository) Followers(ctx context.Context, userID int64) ([]*follow.UserSummary, error) {
	return r.listRelated(ctx,
		`SELECT u.id, u.name, u.email FROM users u
		 JOIN follows f ON f.follower_id = u.id
		 WHERE f.following_id = $1 ORDER BY u.id`,
		userID)
}

func (r *FollowRepository) listRelated(ctx context.Context, query string, userID int64) ([]*follow.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*follow.UserSummary{}
	for rows.Next() {
		u := &follow.UserSummary{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
