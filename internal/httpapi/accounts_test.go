package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, s *Server, method, path string, body any, auth string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleCreateAccount_ResolvesHostWhenOmitted(t *testing.T) {
	s, sched, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/accounts/", map[string]any{
		"email":    "person@gmail.com",
		"password": "app-password",
	}, auth)

	require.Equal(t, http.StatusCreated, w.Code)
	var view accountView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "imap.gmail.com", view.Host)
	assert.Equal(t, 993, view.Port)
	assert.Len(t, sched.activated, 1)
}

func TestHandleCreateAccount_RejectsMissingPassword(t *testing.T) {
	s, _, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/accounts/", map[string]any{
		"email": "person@gmail.com",
	}, auth)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateAccount_RejectsTooSmallPollInterval(t *testing.T) {
	s, _, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/accounts/", map[string]any{
		"email":                 "person@gmail.com",
		"password":              "app-password",
		"poll_interval_seconds": 1,
	}, auth)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountRoutes_RejectUnauthenticatedRequests(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/accounts/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleUpdateAccount_DeactivateNotifiesScheduler(t *testing.T) {
	s, sched, _ := newTestServer(t)
	auth := authHeader(t, s)

	created := doJSON(t, s, http.MethodPost, "/api/accounts/", map[string]any{
		"email":    "person@gmail.com",
		"password": "app-password",
	}, auth)
	require.Equal(t, http.StatusCreated, created.Code)
	var view accountView
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &view))

	w := doJSON(t, s, http.MethodPatch, "/api/accounts/1", map[string]any{
		"is_active": false,
	}, auth)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, sched.deactivated, view.ID)
}

func TestHandleListAccounts_ReturnsCreatedAccounts(t *testing.T) {
	s, _, _ := newTestServer(t)
	auth := authHeader(t, s)

	doJSON(t, s, http.MethodPost, "/api/accounts/", map[string]any{
		"email":    "person@gmail.com",
		"password": "app-password",
	}, auth)

	w := doJSON(t, s, http.MethodGet, "/api/accounts/", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var views []accountView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "person@gmail.com", views[0].Email)
}
