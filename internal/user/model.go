package user

import (
	"errors"
	"time"
)

// ErrDuplicateEmail возвращается репозиторием при нарушении
// уникального индекса по email.
var ErrDuplicateEmail = errors.New("email already taken")

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // будем хранить только хэш
	CreatedAt time.Time `json:"created_at"`
}
