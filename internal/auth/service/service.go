package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedhunt/internal/metrics"
	"feedhunt/internal/token"
	tokenservice "feedhunt/internal/token/service"
	"feedhunt/internal/user"
	"feedhunt/pkg/hash"
)

var (
	ErrInvalidCreds        = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already taken")
	ErrTokenMissing        = errors.New("refresh token not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshExpired      = errors.New("refresh token expired")
	ErrUserNotFound        = errors.New("user not found")
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type AuthService struct {
	users          UserRepository
	credentials    tokenservice.CredentialRepository
	issuer         *tokenservice.Issuer
	verifier       *tokenservice.Verifier
	accessTokenTTL time.Duration
}

func NewAuthService(users UserRepository, credentials tokenservice.CredentialRepository, accessTokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:          users,
		credentials:    credentials,
		issuer:         tokenservice.NewIssuer(credentials),
		verifier:       tokenservice.NewVerifier(credentials),
		accessTokenTTL: accessTokenTTL,
	}
}

func (s *AuthService) Verifier() *tokenservice.Verifier {
	return s.verifier
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Name:     name,
		Email:    email,
		Password: hashed,
	}

	if err := s.users.Create(ctx, u); err != nil {
		// гонка двух одновременных регистраций — ловим по уникальному индексу
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return u, nil
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *user.User
}

// Login отзывает ВСЕ существующие credentials пользователя и выдаёт новую
// пару access/refresh: логин на другом устройстве гасит старую сессию.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !hash.CheckPassword(u.Password, password) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCreds
	}

	if err := s.credentials.DeleteAllForUser(ctx, u.ID); err != nil {
		return nil, err
	}

	_, accessToken, err := s.issuer.Issue(ctx, u.ID, token.PurposeAccess, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}

	_, refreshToken, err := s.issuer.Issue(ctx, u.ID, token.PurposeRefresh, token.RefreshTTL)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u,
	}, nil
}

// Logout удаляет все credentials пользователя. Повторный вызов безвреден.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.credentials.DeleteAllForUser(ctx, userID)
}

// Refresh проверяет refresh-токен из cookie и выдаёт новый access-токен.
// Сам refresh-токен НЕ ротируется — живёт свои 7 дней.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrTokenMissing
	}

	c, err := s.verifier.Verify(ctx, refreshToken, token.PurposeRefresh)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, tokenservice.ErrTokenExpired):
			// просроченная запись уже удалена верификатором — нужен новый логин
			return "", ErrRefreshExpired
		case errors.Is(err, tokenservice.ErrMalformedToken),
			errors.Is(err, tokenservice.ErrTokenNotFound),
			errors.Is(err, tokenservice.ErrHashMismatch),
			errors.Is(err, tokenservice.ErrPurposeMismatch):
			return "", ErrInvalidRefreshToken
		default:
			return "", err
		}
	}

	u, err := s.users.GetByID(ctx, c.UserID)
	if err != nil {
		return "", err
	}
	if u == nil {
		// осиротевший credential
		return "", ErrUserNotFound
	}

	// Удаляем только старые access-токены, refresh остаётся
	if err := s.credentials.DeleteByUserAndPurpose(ctx, u.ID, token.PurposeAccess); err != nil {
		return "", err
	}

	_, accessToken, err := s.issuer.Issue(ctx, u.ID, token.PurposeAccess, s.accessTokenTTL)
	if err != nil {
		return "", err
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()

	return accessToken, nil
}

// CurrentUser резолвит владельца по id из контекста запроса.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
