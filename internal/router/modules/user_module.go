package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tablebook/user-service/internal/container"
	handlers "github.com/tablebook/user-service/internal/interface/http"
	"github.com/tablebook/user-service/internal/interface/middleware"
	"github.com/tablebook/user-service/pkg/helpers"
)

// UserModule wires user HTTP handlers and the bearer-token guard into routes.
// Public: POST /api/v1/users/register
// Protected: GET/PUT /api/v1/users/profile, GET /api/v1/users, GET /api/v1/users/search,
// GET /api/v1/users/:id, GET /api/v1/users/:id/stats, GET /api/v1/users/preferences/:id,
// DELETE /api/v1/users/:id

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// Public with rate limiting
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil) // 10 req/min per IP

	users := rg.Group("/users")
	users.POST("/register", registerLimiter, m.Handler.Register)

	// Protected
	auth := users.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	// Softer per-IP limiter plus a per-user one on all protected routes
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.GET("/search", m.Handler.Search)
		auth.GET("/preferences/:id", m.Handler.GetPreferences)
		auth.GET("/:id", m.Handler.GetByID)
		auth.GET("/:id/stats", m.Handler.GetStats)
		auth.DELETE("/:id", m.Handler.Delete)
		auth.GET("", m.Handler.List)
	}
}
