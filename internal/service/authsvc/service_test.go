package authsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return NewService(store, tokens, nil), store
}

func TestRegisterCreatesUserAndCart(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "alice@example.com", "Alice", "super-secret-1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, domain.RoleUser, session.User.Role)
	assert.NotEqual(t, "super-secret-1", session.User.PasswordHash)

	// Корзина создана вместе с аккаунтом.
	cart, err := store.Carts().GetByUser(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, cart.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "Alice", "super-secret-1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ALICE@example.com", "Another Alice", "super-secret-2")
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyUsed)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "Alice", "super-secret-1")
	assert.ErrorIs(t, err, ErrEmailInvalid)

	_, err = svc.Register(ctx, "alice@example.com", "Alice", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "Alice", "super-secret-1")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice@example.com", "super-secret-1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	// Неверный пароль и несуществующий email дают одну и ту же ошибку.
	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "super-secret-1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "alice@example.com", "Alice", "super-secret-1")
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
