package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/user-service/pkg/helpers"
)

func newAuthRouter(jwt *helpers.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Auth(jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    c.GetString(CtxUserIDKey),
			"email": c.GetString(CtxUserEmailKey),
			"name":  c.GetString(CtxUserNameKey),
		})
	})
	return r
}

func TestAuthMissingHeader(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", "", 15*time.Minute, time.Hour)
	r := newAuthRouter(jwt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "access token is required")
}

func TestAuthWrongScheme(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", "", 15*time.Minute, time.Hour)
	r := newAuthRouter(jwt)

	pair, err := jwt.GeneratePair("u-1", "a@example.com", "John")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic "+pair.AccessToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "access token is required")
}

func TestAuthInvalidToken(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", "", 15*time.Minute, time.Hour)
	r := newAuthRouter(jwt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid or expired access token")
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", "refresh-secret", 15*time.Minute, time.Hour)
	r := newAuthRouter(jwt)

	pair, err := jwt.GeneratePair("u-1", "a@example.com", "John")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthValidToken(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", "refresh-secret", 15*time.Minute, time.Hour)
	r := newAuthRouter(jwt)

	pair, err := jwt.GeneratePair("u-1", "a@example.com", "John Doe")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":"u-1"`)
	require.Contains(t, w.Body.String(), `"email":"a@example.com"`)
	require.Contains(t, w.Body.String(), `"name":"John Doe"`)
}

func TestAuthExpiredToken(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", "", -time.Minute, time.Hour)
	r := newAuthRouter(jwt)

	pair, err := jwt.GeneratePair("u-1", "a@example.com", "John")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
