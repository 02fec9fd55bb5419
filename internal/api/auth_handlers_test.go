package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "alice@example.com",
		"password": "testpass123",
		"name":     "Alice",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Equal(t, int64(15*60), envelope.Data.ExpiresIn)
	assert.Equal(t, "alice@example.com", envelope.Data.User.Email)
	assert.Equal(t, "Alice", envelope.Data.User.Name)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "ALICE@EXAMPLE.COM",
		"password": "testpass123",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
}

func TestRegisterValidation(t *testing.T) {
	ts := setupTestServer(t)

	// Service-level validation: present but malformed fields.
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "not-an-email",
		"password": "testpass123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "bob@example.com",
		"password": "shor",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "Alice@Example.Com",
		"password": "testpass123",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Login failed: %s", resp.Body.String())

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.NotEmpty(t, envelope.Data.AccessToken)
}

func TestLoginBadCredentials(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "alice@example.com")

	// Wrong password and unknown email produce the same response.
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "testpass123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRefreshRotation(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": auth.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code, "Refresh failed: %s", resp.Body.String())

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.NotEqual(t, auth.RefreshToken, envelope.Data.RefreshToken)

	// The spent token no longer works.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// The rotated one does.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": envelope.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/logout", map[string]any{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Logging out an already-revoked token is a no-op.
	resp = ts.api.Post("/api/v1/auth/logout", map[string]any{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestLogoutAll(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	// A second session via login.
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "testpass123",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	second := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/auth/logout-all", "Authorization: Bearer "+auth.AccessToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	for _, token := range []string{auth.RefreshToken, second.Data.RefreshToken} {
		resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{"refresh_token": token})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+auth.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, "alice@example.com", envelope.Data.Email)

	// No token, malformed header, garbage token.
	resp = ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Token abc")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUpdateCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Patch("/api/v1/users/me",
		"Authorization: Bearer "+auth.AccessToken,
		map[string]any{"name": "Alice Liddell"})
	require.Equal(t, http.StatusOK, resp.Code, "Update failed: %s", resp.Body.String())

	envelope := decodeEnvelope[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Alice Liddell", envelope.Data.Name)
	assert.Equal(t, "alice@example.com", envelope.Data.Email)
}

func TestUpdatePasswordRevokesSessions(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Patch("/api/v1/users/me",
		"Authorization: Bearer "+auth.AccessToken,
		map[string]any{"password": "newpassword456"})
	require.Equal(t, http.StatusOK, resp.Code)

	// The old refresh token is gone.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Only the new password logs in.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "testpass123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupTestServer(t)

	// Attempts against an unknown email are cheap to make and should
	// eventually trip the per-client limiter.
	limited := false
	for range 60 {
		resp := ts.api.Post("/api/v1/auth/login",
			"X-Forwarded-For: 203.0.113.9",
			map[string]any{
				"email":    "nobody@example.com",
				"password": "whatever123",
			})
		if resp.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	assert.True(t, limited, "expected the rate limiter to trip")

	// Other clients are unaffected.
	resp := ts.api.Post("/api/v1/auth/login",
		"X-Forwarded-For: 198.51.100.7",
		map[string]any{
			"email":    "nobody@example.com",
			"password": "whatever123",
		})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
