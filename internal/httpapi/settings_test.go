package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleGetSettings_NeverExposesSecrets(t *testing.T) {
	s, _, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(t, s, http.MethodPatch, "/api/settings", map[string]any{
		"telegram_bot_token": "secret-token",
		"api_token":          "static-api-token",
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/settings", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var view settingsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.TelegramBotTokenSet)
	assert.True(t, view.APITokenSet)
	assert.NotContains(t, w.Body.String(), "secret-token")
	assert.NotContains(t, w.Body.String(), "static-api-token")
}

func TestHandlePatchSettings_UpdatesPollInterval(t *testing.T) {
	s, _, _ := newTestServer(t)
	auth := authHeader(t, s)

	w := doJSON(t, s, http.MethodPatch, "/api/settings", map[string]any{
		"poll_interval_seconds": 120,
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/settings", nil, auth)
	var view settingsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 120, view.PollIntervalSeconds)
}
