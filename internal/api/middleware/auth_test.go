package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard/backend/internal/services"
)

func protectedRouter(tokens *services.TokenService) *gin.Engine {
	r := gin.New()
	r.Use(RequireToken(tokens))
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SubjectKey))
	})
	return r
}

func TestRequireToken_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	protectedRouter(services.NewTokenService("secret")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header required")
}

func TestRequireToken_WrongSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	forged, err := services.NewTokenService("attacker").Issue("mallory", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	protectedRouter(services.NewTokenService("secret")).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestRequireToken_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := services.NewTokenService("secret")
	tok, err := tokens.Issue("analyst", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	protectedRouter(tokens).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "analyst", w.Body.String())
}

func TestRequireToken_DisabledWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	protectedRouter(services.NewTokenService("")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
