package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"feedhunt/internal/token"
)

var (
	ErrMalformedToken  = errors.New("malformed token")
	ErrTokenNotFound   = errors.New("token not found")
	ErrHashMismatch    = errors.New("token hash mismatch")
	ErrPurposeMismatch = errors.New("token purpose mismatch")
	ErrTokenExpired    = errors.New("token expired")
)

type Verifier struct {
	repo CredentialRepository
}

func NewVerifier(repo CredentialRepository) *Verifier {
	return &Verifier{repo: repo}
}

// Verify проверяет токен "{id}|{secret}". Порядок проверок важен:
// кривой формат отсекается до любого обращения к базе.
// Просроченный credential удаляется как side effect — повторное
// предъявление даст ErrTokenNotFound, а не ErrTokenExpired.
func (v *Verifier) Verify(ctx context.Context, tokenString, expectedPurpose string) (*token.Credential, error) {
	if strings.Count(tokenString, "|") != 1 {
		return nil, ErrMalformedToken
	}
	idPart, secretPart, _ := strings.Cut(tokenString, "|")
	if idPart == "" || secretPart == "" {
		return nil, ErrMalformedToken
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return nil, ErrMalformedToken
	}

	c, err := v.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrTokenNotFound
	}

	// Сравнение хэшей за константное время
	if subtle.ConstantTimeCompare([]byte(hashSecret(secretPart)), []byte(c.SecretHash)) != 1 {
		return nil, ErrHashMismatch
	}

	if c.Purpose != expectedPurpose {
		return nil, ErrPurposeMismatch
	}

	if time.Now().After(c.ExpiresAt) {
		if err := v.repo.Delete(ctx, c.ID); err != nil {
			return nil, err
		}
		return nil, ErrTokenExpired
	}

	return c, nil
}
