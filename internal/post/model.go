package post

import "time"

type Post struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorName  string    `json:"author_name,omitempty"` // заполняется только в ленте
}
