package repository

import (
	"context"
	"database/sql"

	"feedhunt/internal/post"
)

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *post.Post) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO posts (user_id, title, description) VALUES ($1, $2, $3) RETURNING id, created_at`,
		p.UserID, p.Title, p.Description).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *PostRepository) ListByUser(ctx context.Context, userID int64) ([]*post.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, created_at FROM posts
		 WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows, false)
}

func (r *PostRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*post.Post, error) {
	p := &post.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, created_at FROM posts
		 WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Feed возвращает посты самого пользователя и всех, на кого он подписан,
// свежие первыми, с именем автора.
func (r *PostRepository) Feed(ctx context.Context, userID int64) ([]*post.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, p.title, p.description, p.created_at, u.name
		 FROM posts p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.user_id = $1
		    OR p.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		 ORDER BY p.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows, true)
}

func scanPosts(rows *sql.Rows, withAuthor bool) ([]*post.Post, error) {
	posts := []*post.Post{}
	for rows.Next() {
		p := &post.Post{}
		var err error
		if withAuthor {
			err = rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt, &p.AuthorName)
		} else {
			err = rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt)
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
