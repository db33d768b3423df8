package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailaggregator/mailaggregator/internal/auth"
)

func newTestRouter(tokens *auth.TokenManager, apiToken string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/protected", RequireAuth(tokens, func() string { return apiToken }), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuth_AcceptsMatchingBearerToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newTestRouter(tokens, "static-token")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer static-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_AcceptsValidSessionToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newTestRouter(tokens, "static-token")

	token, err := tokens.Issue("admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_RejectsMissingHeader(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newTestRouter(tokens, "static-token")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_RejectsGarbageToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newTestRouter(tokens, "static-token")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID_GeneratesWhenAbsentAndEchoesWhenPresent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req2 := httptest.NewRequest(http.MethodGet, "/x", nil)
	req2.Header.Set("X-Request-Id", "fixed-id")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, "fixed-id", w2.Header().Get("X-Request-Id"))
}
