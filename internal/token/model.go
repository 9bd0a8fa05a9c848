package token

import "time"

const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

// RefreshTTL фиксированный — 7 дней, не конфигурируется
const RefreshTTL = 7 * 24 * time.Hour

type Credential struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	SecretHash string    `json:"-"`       // храним только SHA-256 хэш секрета
	Purpose    string    `json:"purpose"` // "access" или "refresh"
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
