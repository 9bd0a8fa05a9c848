package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"feedhunt/internal/metrics"
	"feedhunt/internal/token"
)

// CredentialRepository описывает хранилище выданных токенов.
type CredentialRepository interface {
	Create(ctx context.Context, c *token.Credential) error
	GetByID(ctx context.Context, id int64) (*token.Credential, error)
	Delete(ctx context.Context, id int64) error
	DeleteAllForUser(ctx context.Context, userID int64) error
	DeleteByUserAndPurpose(ctx context.Context, userID int64, purpose string) error
}

type Issuer struct {
	repo CredentialRepository
}

func NewIssuer(repo CredentialRepository) *Issuer {
	return &Issuer{repo: repo}
}

// generateSecret возвращает hex-строку из length случайных байт.
// Hex гарантирует, что разделитель '|' в секрете не встретится.
func generateSecret(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Issue создает запись credential и возвращает её вместе с plaintext-токеном
// вида "{id}|{secret}". Секрет виден только здесь, в базу попадает хэш.
func (i *Issuer) Issue(ctx context.Context, userID int64, purpose string, ttl time.Duration) (*token.Credential, string, error) {
	secret, err := generateSecret(32)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate secret: %w", err)
	}

	c := &token.Credential{
		UserID:     userID,
		SecretHash: hashSecret(secret),
		Purpose:    purpose,
		ExpiresAt:  time.Now().Add(ttl),
	}

	if err := i.repo.Create(ctx, c); err != nil {
		return nil, "", fmt.Errorf("failed to store credential: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(purpose).Inc()

	return c, fmt.Sprintf("%d|%s", c.ID, secret), nil
}
