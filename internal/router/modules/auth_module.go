package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tablebook/user-service/internal/container"
	handlers "github.com/tablebook/user-service/internal/interface/http"
	"github.com/tablebook/user-service/internal/interface/middleware"
	"github.com/tablebook/user-service/pkg/helpers"
)

// AuthModule wires the credential and token endpoints.
// Public: POST /api/v1/auth/login, POST /api/v1/auth/refresh,
// POST /api/v1/auth/reset/init, POST /api/v1/auth/reset/confirm
// Protected: POST /api/v1/auth/logout, POST /api/v1/auth/change-password,
// POST /api/v1/auth/verify-token

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)   // 10 req/min per IP
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil) // 60 req/min per IP
	resetLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	a := rg.Group("/auth")
	a.POST("/login", loginLimiter, m.Handler.Login)
	a.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	a.POST("/reset/init", resetLimiter, m.Handler.ResetInit)
	a.POST("/reset/confirm", resetLimiter, m.Handler.ResetConfirm)

	auth := a.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/change-password", m.Handler.ChangePassword)
		auth.POST("/verify-token", m.Handler.VerifyToken)
	}
}
