package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/internal/application/services"
	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/models"
)

// AuthService authenticates and manages users
type AuthService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetUserByID(ctx context.Context, userID string) (*models.SystemUser, error)
	CreateUser(ctx context.Context, req services.CreateUserRequest, caller *auth.UserSession) (*models.SystemUser, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Success   bool             `json:"success"`
	Token     string           `json:"token"`
	User      auth.UserSession `json:"user"`
	ExpiresAt string           `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	if !auth.IsValidEmail(req.Email) {
		RespondError(c, http.StatusBadRequest, "Invalid email format")
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Token:     result.Token,
		User:      result.User,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
	})
}

// GetMe handles GET /api/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "user", func() (interface{}, error) {
		return h.svc.GetUserByID(c.Request.Context(), user.ID)
	})
}

// ChangePasswordRequest represents change password request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !BindJSON(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Password changed successfully"})
}

// Register handles POST /api/auth/register (managers only)
func (h *AuthHandler) Register(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	var req services.CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleCreateEnvelope(c, "user", "User created successfully", func() (interface{}, error) {
		return h.svc.CreateUser(c.Request.Context(), req, user)
	})
}
