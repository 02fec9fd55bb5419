package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
)

func TestRegister(t *testing.T) {
	env := setupServices(t)

	resp := registerTestUser(t, env, "alice@example.com")
	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Positive(t, resp.ExpiresIn)
	// The hash never leaves the service as the raw password.
	assert.NotEqual(t, "testpass123", resp.User.PasswordHash)
}

func TestRegisterNormalizesEmailDomain(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "Alice@EXAMPLE.COM",
		Password: "testpass123",
	})
	require.NoError(t, err)
	// Local part keeps its case; domain is lowercased.
	assert.Equal(t, "Alice@example.com", resp.User.Email)
}

func TestRegisterValidation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "testpass123"}},
		{"malformed email", RegisterRequest{Email: "not-an-email", Password: "testpass123"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	registerTestUser(t, env, "alice@example.com")

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "ALICE@example.com",
		Password: "testpass123",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestLogin(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	registerTestUser(t, env, "alice@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "testpass123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.False(t, resp.User.LastLoginAt.IsZero())

	// Email comparison is case-insensitive.
	_, err = env.auth.Login(ctx, LoginRequest{Email: "ALICE@EXAMPLE.COM", Password: "testpass123"})
	require.NoError(t, err)
}

func TestLoginBadCredentials(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	registerTestUser(t, env, "alice@example.com")

	// Wrong password and unknown email produce the same error code.
	_, err := env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "testpass123"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestRefreshRotatesToken(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerTestUser(t, env, "alice@example.com")

	refreshed, err := env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is spent.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))

	// The new one works.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: refreshed.RefreshToken})
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerTestUser(t, env, "alice@example.com")

	require.NoError(t, env.auth.Logout(ctx, resp.RefreshToken))

	_, err := env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))

	// Logging out an unknown token is a no-op.
	require.NoError(t, env.auth.Logout(ctx, "bogus"))
}

func TestMe(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerTestUser(t, env, "alice@example.com")

	user, err := env.auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = env.auth.Me(ctx, "user-missing")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestUpdateProfile(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerTestUser(t, env, "alice@example.com")

	newName := "Alice Cooper"
	newEmail := "alice.cooper@Example.COM"
	user, err := env.auth.UpdateProfile(ctx, resp.User.ID, UpdateProfileRequest{
		Name:  &newName,
		Email: &newEmail,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", user.Name)
	assert.Equal(t, "alice.cooper@example.com", user.Email)
}

func TestUpdateProfilePasswordRevokesSessions(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	resp := registerTestUser(t, env, "alice@example.com")

	newPassword := "brand-new-pass"
	_, err := env.auth.UpdateProfile(ctx, resp.User.ID, UpdateProfileRequest{Password: &newPassword})
	require.NoError(t, err)

	// Old refresh token no longer works.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))

	// New password logs in; the old one doesn't.
	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: newPassword})
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "testpass123"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}
