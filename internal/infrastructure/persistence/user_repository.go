package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CheckUserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UserWithPassword carries the password hash for auth checks
type UserWithPassword struct {
	models.SystemUser
	PasswordHash string
}

// FindUserByEmailWithPassword returns nil when no user has that email.
func (r *UserRepository) FindUserByEmailWithPassword(ctx context.Context, email string) (*UserWithPassword, error) {
	query := fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s = ? LIMIT 1",
		constants.FieldID, constants.FieldName, constants.FieldEmail, constants.FieldPassword, constants.FieldRole, constants.FieldIsActive,
		constants.TableUser, constants.FieldEmail)

	var u UserWithPassword
	var password sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &password, &u.Role, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.PasswordHash = password.String
	return &u, nil
}

// GetUserByID returns nil when the user does not exist.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.SystemUser, error) {
	query := fmt.Sprintf("SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = ? LIMIT 1",
		constants.FieldID, constants.FieldName, constants.FieldEmail, constants.FieldRole, constants.FieldIsActive,
		constants.TableUser, constants.FieldID)

	var u models.SystemUser
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user with an already hashed password.
func (r *UserRepository) CreateUser(ctx context.Context, u models.SystemUser, passwordHash string) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableUser,
		constants.FieldID, constants.FieldName, constants.FieldEmail, constants.FieldPassword, constants.FieldRole,
		constants.FieldIsActive, constants.FieldCreatedDate, constants.FieldLastModifiedDate)

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, passwordHash, u.Role, u.IsActive, now, now)
	return err
}

// UpdatePassword updates the user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ? WHERE %s = ?",
		constants.TableUser, constants.FieldPassword, constants.FieldLastModifiedDate, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), userID)
	return err
}
