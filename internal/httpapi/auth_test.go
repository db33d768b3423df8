package httpapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedAdmin(t *testing.T, s *Server, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, s.store.SeedAdminCredentials(context.Background(), username, string(hash)))
}

func TestHandleLogin_AcceptsCorrectPassword(t *testing.T) {
	s, _, _ := newTestServer(t)
	seedAdmin(t, s, "admin", "correct-horse")

	w := doJSON(t, s, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "admin",
		"password": "correct-horse",
	}, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}

func TestHandleLogin_RejectsWrongPassword(t *testing.T) {
	s, _, _ := newTestServer(t)
	seedAdmin(t, s, "admin", "correct-horse")

	w := doJSON(t, s, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "admin",
		"password": "wrong",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleResetPassword_RequiresValidResetToken(t *testing.T) {
	s, _, _ := newTestServer(t)
	seedAdmin(t, s, "admin", "correct-horse")

	w := doJSON(t, s, http.MethodPost, "/api/auth/reset-password", map[string]any{
		"reset_token":  "wrong-token",
		"new_password": "new-pass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/reset-password", map[string]any{
		"reset_token":  "reset-token",
		"new_password": "new-pass",
	}, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	login := doJSON(t, s, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "admin",
		"password": "new-pass",
	}, "")
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestHandleChangePassword_RequiresCurrentPassword(t *testing.T) {
	s, _, _ := newTestServer(t)
	seedAdmin(t, s, "admin", "correct-horse")
	auth := authHeader(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/auth/change-password", map[string]any{
		"current_password": "wrong",
		"new_password":     "new-pass",
	}, auth)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/change-password", map[string]any{
		"current_password": "correct-horse",
		"new_password":     "new-pass",
	}, auth)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
