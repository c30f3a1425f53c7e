package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcaseapp/bookcase-server/internal/domain"
	"github.com/bookcaseapp/bookcase-server/internal/service"
)

func TestRegister_ReturnsTokenAndSanitizedUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "reader@example.com",
		"password":     "correct horse battery",
		"display_name": "Reader",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body service.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.NotEmpty(t, body.AccessToken)
	assert.True(t, body.ExpiresAt.After(body.User.CreatedAt))
	assert.Equal(t, "reader@example.com", body.User.Email)
	assert.Empty(t, body.User.PasswordHash)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "Reader@Example.com",
		"password":     "another password",
		"display_name": "Imposter",
	})
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
}

func TestRegister_InvalidInput(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "not-an-email",
		"password":     "short",
		"display_name": "Reader",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestLogin_RoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "reader@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body service.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "reader@example.com",
		"password": "wrong password entirely",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var profile domain.Profile
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	assert.Equal(t, "reader@example.com", profile.Email)
	assert.Equal(t, "Reader", profile.DisplayName)
}

func TestGetCurrentUser_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
