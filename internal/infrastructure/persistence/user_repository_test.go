package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUserExistsByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	email := "gestor@minerva.eng.br"
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(email).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CheckUserExistsByEmail(context.Background(), email)
	assert.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("ninguem@minerva.eng.br").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err = repo.CheckUserExistsByEmail(context.Background(), "ninguem@minerva.eng.br")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestFindUserByEmailWithPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	query := "SELECT id, name, email, password_hash, role, is_active FROM usuarios WHERE email = ? LIMIT 1"

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("ana@minerva.eng.br").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "is_active"}).
			AddRow("u-1", "Ana", "ana@minerva.eng.br", "$2a$10$hash", "gestor", true))

	user, err := repo.FindUserByEmailWithPassword(context.Background(), "ana@minerva.eng.br")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.True(t, user.IsAdmin())

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("x@y.z").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "is_active"}))

	user, err = repo.FindUserByEmailWithPassword(context.Background(), "x@y.z")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO usuarios (id, name, email, password_hash, role, is_active, created_date, last_modified_date)")).
		WithArgs("u-1", "Admin", "admin@minerva.eng.br", "hash", "admin", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.CreateUser(context.Background(), models.SystemUser{
		ID: "u-1", Name: "Admin", Email: "admin@minerva.eng.br", Role: "admin", IsActive: true,
	}, "hash")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
