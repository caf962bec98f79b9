package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/councilbooks/councilbooks/internal/shared"
)

type mockRepository struct {
	byUsername map[string]*User
	byID       map[int64]*User
}

func (m *mockRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	user, ok := m.byUsername[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (m *mockRepository) FindByID(_ context.Context, id int64) (*User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func newTestService(t *testing.T, users ...*User) *Service {
	t.Helper()
	repo := &mockRepository{byUsername: make(map[string]*User), byID: make(map[int64]*User)}
	for _, u := range users {
		repo.byUsername[u.Username] = u
		repo.byID[u.ID] = u
	}
	return NewService(repo, "test-secret", time.Hour)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t, &User{
		ID:           1,
		Username:     "treasurer",
		PasswordHash: hashPassword(t, "s3cret"),
		Status:       "active",
	})

	user, err := svc.Authenticate(context.Background(), "treasurer", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := newTestService(t, &User{
		ID:           1,
		Username:     "treasurer",
		PasswordHash: hashPassword(t, "s3cret"),
		Status:       "active",
	})

	_, err := svc.Authenticate(context.Background(), "treasurer", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	svc := newTestService(t, &User{
		ID:           2,
		Username:     "retired",
		PasswordHash: hashPassword(t, "s3cret"),
		Status:       "inactive",
	})

	_, err := svc.Authenticate(context.Background(), "retired", "s3cret")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.IssueToken(&User{ID: 42})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyTokenGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.VerifyToken("not-a-token")
	assert.Error(t, err)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	issuer := NewService(&mockRepository{}, "secret-a", time.Hour)
	verifier := NewService(&mockRepository{}, "secret-b", time.Hour)

	token, err := issuer.IssueToken(&User{ID: 7})
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	svc := NewService(&mockRepository{}, "test-secret", -time.Minute)

	token, err := svc.IssueToken(&User{ID: 7})
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.Error(t, err)
}

func TestLookupUser(t *testing.T) {
	svc := newTestService(t, &User{ID: 3, Username: "clerk", Status: "active"})

	user, err := svc.LookupUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "clerk", user.Username)

	_, err = svc.LookupUser(context.Background(), 99)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
