package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/models"
	"github.com/minerva/erp/pkg/utils"
)

const minPasswordLength = 8

// AuthService handles login and password operations
type AuthService struct {
	users *persistence.UserRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(users *persistence.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string           `json:"token"`
	User      auth.UserSession `json:"user"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Login authenticates a user and issues a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindUserByEmailWithPassword(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		log.Printf("⚠️ Login failed for %s: user inactive", email)
		return nil, errors.NewUnauthorizedError("User is inactive")
	}
	if user.PasswordHash == "" || !auth.VerifyPassword(password, user.PasswordHash) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	session := auth.UserSession{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	token, expiresAt, err := auth.GenerateToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("🔐 User logged in: %s", user.Email)
	return &LoginResult{Token: token, User: session, ExpiresAt: expiresAt}, nil
}

// GetUserByID returns the user profile
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.SystemUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError(constants.TableUser, userID)
	}
	return user, nil
}

// CreateUserRequest is the input of CreateUser
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// CreateUser registers a new user. Only managers may call it.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest, caller *auth.UserSession) (*models.SystemUser, error) {
	if !caller.IsAdmin() {
		return nil, errors.NewPermissionError("create", constants.TableUser)
	}
	if !auth.IsValidEmail(req.Email) {
		return nil, errors.NewValidationError("email", "Invalid email")
	}
	if len(req.Password) < minPasswordLength {
		return nil, errors.NewValidationError("password", fmt.Sprintf("Password must have at least %d characters", minPasswordLength))
	}

	role := req.Role
	switch role {
	case "":
		role = constants.RoleColaborador
	case constants.RoleAdmin, constants.RoleGestor, constants.RoleColaborador, constants.RoleCliente:
	default:
		return nil, errors.NewValidationError("role", fmt.Sprintf("Unknown role %q", role))
	}
	if role == constants.RoleAdmin && caller.Role != constants.RoleAdmin {
		return nil, errors.NewPermissionError("grant admin to", constants.TableUser)
	}

	exists, err := s.users.CheckUserExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if exists {
		return nil, errors.NewValidationError("email", "Email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := models.SystemUser{
		ID:       utils.GenerateID(),
		Name:     req.Name,
		Email:    req.Email,
		Role:     role,
		IsActive: true,
	}
	if err := s.users.CreateUser(ctx, user, hash); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("✅ User %s created with role %s", user.Email, role)
	return &user, nil
}

// ChangePassword updates a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errors.NewValidationError("new_password", fmt.Sprintf("Password must have at least %d characters", minPasswordLength))
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError(constants.TableUser, userID)
	}
	withPassword, err := s.users.FindUserByEmailWithPassword(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if withPassword == nil || !auth.VerifyPassword(currentPassword, withPassword.PasswordHash) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}
	log.Printf("🔐 Password changed for user: %s", userID)
	return nil
}
