package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/models"
	"github.com/minerva/erp/pkg/utils"
)

// EnsureAdminUser creates the first administrator when ADMIN_EMAIL and
// ADMIN_PASSWORD are configured and no user has that email yet.
func EnsureAdminUser(ctx context.Context, users *persistence.UserRepository, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	exists, err := users.CheckUserExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.SystemUser{
		ID:       utils.GenerateID(),
		Name:     "Administrador",
		Email:    email,
		Role:     constants.RoleAdmin,
		IsActive: true,
	}
	if err := users.CreateUser(ctx, admin, hash); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("   ✅ Admin user %s created", email)
	return nil
}
