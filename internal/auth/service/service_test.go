package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedhunt/internal/token"
	"feedhunt/internal/user"
	"feedhunt/pkg/hash"
)

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int64]*user.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail
		}
	}
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.nextID++
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type fakeCredentialRepo struct {
	nextID int64
	store  map[int64]*token.Credential
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{nextID: 1, store: map[int64]*token.Credential{}}
}

func (f *fakeCredentialRepo) Create(ctx context.Context, c *token.Credential) error {
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	f.nextID++
	cp := *c
	f.store[c.ID] = &cp
	return nil
}

func (f *fakeCredentialRepo) GetByID(ctx context.Context, id int64) (*token.Credential, error) {
	c, ok := f.store[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCredentialRepo) Delete(ctx context.Context, id int64) error {
	delete(f.store, id)
	return nil
}

func (f *fakeCredentialRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	for id, c := range f.store {
		if c.UserID == userID {
			delete(f.store, id)
		}
	}
	return nil
}

func (f *fakeCredentialRepo) DeleteByUserAndPurpose(ctx context.Context, userID int64, purpose string) error {
	for id, c := range f.store {
		if c.UserID == userID && c.Purpose == purpose {
			delete(f.store, id)
		}
	}
	return nil
}

func (f *fakeCredentialRepo) countByPurpose(userID int64, purpose string) int {
	n := 0
	for _, c := range f.store {
		if c.UserID == userID && c.Purpose == purpose {
			n++
		}
	}
	return n
}

func newTestService() (*AuthService, *fakeUserRepo, *fakeCredentialRepo) {
	users := newFakeUserRepo()
	creds := newFakeCredentialRepo()
	return NewAuthService(users, creds, 2*time.Minute), users, creds
}

func registerAndLogin(t *testing.T, s *AuthService) *LoginResult {
	t.Helper()
	_, err := s.Register(context.Background(), "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	res, err := s.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	return res
}

func TestRegister_HashesPassword(t *testing.T) {
	s, users, _ := newTestService()

	u, err := s.Register(context.Background(), "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	stored := users.users[u.ID]
	assert.NotEqual(t, "password123", stored.Password, "plaintext must never be persisted")
	assert.True(t, hash.CheckPassword(stored.Password, "password123"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, _, _ := newTestService()

	_, err := s.Register(context.Background(), "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "Another Alice", "alice@example.com", "password456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	s, _, creds := newTestService()
	res := registerAndLogin(t, s)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.NotEqual(t, res.AccessToken, res.RefreshToken)

	userID := res.User.ID
	assert.Equal(t, 1, creds.countByPurpose(userID, token.PurposeAccess))
	assert.Equal(t, 1, creds.countByPurpose(userID, token.PurposeRefresh))

	// токен сразу проходит проверку
	_, err := s.Verifier().Verify(context.Background(), res.AccessToken, token.PurposeAccess)
	assert.NoError(t, err)
}

func TestLogin_InvalidPassword(t *testing.T) {
	s, _, _ := newTestService()
	registerAndLogin(t, s)

	_, err := s.Login(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s, _, _ := newTestService()

	_, err := s.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_RevokesPriorSession(t *testing.T) {
	s, _, creds := newTestService()
	first := registerAndLogin(t, s)

	second, err := s.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)

	// от первой сессии не осталось ни одного credential
	userID := second.User.ID
	assert.Equal(t, 1, creds.countByPurpose(userID, token.PurposeAccess))
	assert.Equal(t, 1, creds.countByPurpose(userID, token.PurposeRefresh))

	_, err = s.Verifier().Verify(context.Background(), first.AccessToken, token.PurposeAccess)
	assert.Error(t, err)

	_, err = s.Verifier().Verify(context.Background(), second.AccessToken, token.PurposeAccess)
	assert.NoError(t, err)
}

func TestLogout_DeletesAllCredentials(t *testing.T) {
	s, _, creds := newTestService()
	res := registerAndLogin(t, s)
	userID := res.User.ID

	require.NoError(t, s.Logout(context.Background(), userID))
	assert.Empty(t, creds.store)

	// refresh по старой cookie после logout не проходит
	_, err := s.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// повторный logout безвреден
	assert.NoError(t, s.Logout(context.Background(), userID))
}

func TestRefresh_IssuesNewAccessToken(t *testing.T) {
	s, _, creds := newTestService()
	res := registerAndLogin(t, s)
	userID := res.User.ID

	newAccess, err := s.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, res.AccessToken, newAccess)
	assert.Equal(t, 1, creds.countByPurpose(userID, token.PurposeAccess))

	// новый токен валиден, старый отозван
	_, err = s.Verifier().Verify(context.Background(), newAccess, token.PurposeAccess)
	assert.NoError(t, err)
	_, err = s.Verifier().Verify(context.Background(), res.AccessToken, token.PurposeAccess)
	assert.Error(t, err)

	// refresh-токен НЕ ротируется и остаётся валидным
	_, err = s.Verifier().Verify(context.Background(), res.RefreshToken, token.PurposeRefresh)
	assert.NoError(t, err)
}

func TestRefresh_MissingToken(t *testing.T) {
	s, _, _ := newTestService()

	_, err := s.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	s, _, _ := newTestService()
	res := registerAndLogin(t, s)

	// access-токен нельзя предъявить вместо refresh
	_, err := s.Refresh(context.Background(), res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_ExpiredForcesRelogin(t *testing.T) {
	s, _, creds := newTestService()
	res := registerAndLogin(t, s)

	// просрочиваем refresh-токен вручную
	for _, c := range creds.store {
		if c.Purpose == token.PurposeRefresh {
			c.ExpiresAt = time.Now().Add(-time.Hour)
		}
	}

	_, err := s.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshExpired)

	// запись удалена: повторная попытка — уже invalid, не expired
	_, err = s.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_OrphanedCredential(t *testing.T) {
	s, users, _ := newTestService()
	res := registerAndLogin(t, s)

	delete(users.users, res.User.ID)

	_, err := s.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefresh_NoSideEffectsOnFailure(t *testing.T) {
	s, _, creds := newTestService()
	res := registerAndLogin(t, s)
	userID := res.User.ID

	_, err := s.Refresh(context.Background(), "999999|deadbeef")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	// неудачный refresh ничего не выдал и не удалил
	assert.Equal(t, 1, creds.countByPurpose(userID, token.PurposeAccess))
	assert.Equal(t, 1, creds.countByPurpose(userID, token.PurposeRefresh))
}
