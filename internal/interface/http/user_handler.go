package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/tablebook/user-service/internal/application"
	"github.com/tablebook/user-service/internal/domain/entity"
	"github.com/tablebook/user-service/internal/interface/middleware"
	"github.com/tablebook/user-service/pkg/apperr"
	"github.com/tablebook/user-service/pkg/response"
	"github.com/tablebook/user-service/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// respondError maps an application error onto the response envelope.
func respondError(c *gin.Context, err error) {
	response.Error[any](c, apperr.HTTPStatus(err), apperr.Message(err), nil)
}

type registerRequest struct {
	Email       string                   `json:"email" binding:"required,email"`
	Password    string                   `json:"password" binding:"required,strongpwd"`
	Name        string                   `json:"name" binding:"required"`
	Phone       string                   `json:"phone" binding:"required"`
	Preferences *entity.PreferencesPatch `json:"preferences"`
}

type updateProfileRequest struct {
	Name        string                   `json:"name" binding:"required"`
	Phone       string                   `json:"phone" binding:"required"`
	Preferences *entity.PreferencesPatch `json:"preferences"`
}

// Register POST /api/v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.CreateUser(c.Request.Context(), userapp.CreateUserCommand{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Phone:       req.Phone,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res, "user created successfully", nil)
}

// GetProfile GET /api/v1/users/profile (auth)
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	res, err := h.Svc.GetUser(c.Request.Context(), userapp.GetUserQuery{UserID: uid})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "profile", nil)
}

// UpdateProfile PUT /api/v1/users/profile (auth)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.UpdateUser(c.Request.Context(), userapp.UpdateUserCommand{
		UserID:      uid,
		Name:        req.Name,
		Phone:       req.Phone,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "profile updated", nil)
}

// GetByID GET /api/v1/users/:id (auth)
func (h *UserHandler) GetByID(c *gin.Context) {
	res, err := h.Svc.GetUser(c.Request.Context(), userapp.GetUserQuery{UserID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "user", nil)
}

// GetPreferences GET /api/v1/users/preferences/:id (auth)
func (h *UserHandler) GetPreferences(c *gin.Context) {
	res, err := h.Svc.GetUserPreferences(c.Request.Context(), userapp.GetUserPreferencesQuery{UserID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "preferences", nil)
}

// GetStats GET /api/v1/users/:id/stats (auth)
func (h *UserHandler) GetStats(c *gin.Context) {
	stats, err := h.Svc.GetUserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats, "stats", nil)
}

// List GET /api/v1/users (auth)
func (h *UserHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	res, err := h.Svc.ListActiveUsers(c.Request.Context(), userapp.ListUsersQuery{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res.Users, "users", map[string]any{"total": res.Total, "limit": limit, "offset": offset})
}

// Search GET /api/v1/users/search?q=&size= (auth)
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

// Delete DELETE /api/v1/users/:id (auth; soft delete)
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), userapp.DeleteUserCommand{UserID: c.Param("id")}); err != nil {
		respondError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "user deleted successfully", nil)
}
