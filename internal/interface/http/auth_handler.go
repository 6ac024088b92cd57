package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/tablebook/user-service/internal/application"
	"github.com/tablebook/user-service/internal/interface/middleware"
	"github.com/tablebook/user-service/pkg/response"
	"github.com/tablebook/user-service/pkg/validation"
)

type AuthHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *userapp.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,strongpwd"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,strongpwd"`
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), userapp.LoginCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "login successful", map[string]any{
		"access_expires_at":  res.Expiry.AccessTokenExpiry,
		"refresh_expires_at": res.Expiry.RefreshTokenExpiry,
	})
}

// Refresh POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.RefreshToken(c.Request.Context(), userapp.RefreshTokenCommand{RefreshToken: req.RefreshToken})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res.Tokens, "token refreshed", map[string]any{
		"access_expires_at":  res.Expiry.AccessTokenExpiry,
		"refresh_expires_at": res.Expiry.RefreshTokenExpiry,
	})
}

// Logout POST /api/v1/auth/logout (auth)
// Tokens are stateless; the server keeps no session to destroy. Clients
// discard both tokens. Revocation/blacklisting is a known gap.
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logout successful", nil)
}

// ChangePassword POST /api/v1/auth/change-password (auth)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.ChangePassword(c.Request.Context(), userapp.ChangePasswordCommand{
		UserID:          uid,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed successfully", nil)
}

// VerifyToken POST /api/v1/auth/verify-token (auth)
// Echoes the verified identity the guard extracted from the access token.
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"valid": true,
		"user": gin.H{
			"id":    c.GetString(middleware.CtxUserIDKey),
			"email": c.GetString(middleware.CtxUserEmailKey),
			"name":  c.GetString(middleware.CtxUserNameKey),
		},
	}, "token valid", nil)
}

// ResetInit POST /api/v1/auth/reset/init
// Always answers 200 to avoid account enumeration.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	link, err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reset_link": link}, "reset link", nil)
}

// ResetConfirm POST /api/v1/auth/reset/confirm
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
