package bootstrap

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minerva/erp/internal/domain/workflow"
	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/expression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeWorkflows_RegistersAllOSTypes(t *testing.T) {
	registry := workflow.NewRegistry()
	require.NoError(t, InitializeWorkflows(registry, expression.NewEngine()))

	defs := registry.List()
	require.Len(t, defs, 13)
	assert.Equal(t, "OS-01", defs[0].OSType)
	assert.Equal(t, "OS-13", defs[12].OSType)

	for _, def := range defs {
		assert.GreaterOrEqual(t, len(def.Steps), 5, def.OSType)
		assert.LessOrEqual(t, len(def.Steps), 7, def.OSType)
	}

	os07, ok := registry.Get("OS-07")
	require.True(t, ok)
	assert.Equal(t, workflow.GatingAdvisory, os07.Gating)

	os13, ok := registry.Get("OS-13")
	require.True(t, ok)
	assert.False(t, os13.LazyCreate)
}

func TestWorkflowRules_FirstStepOfOS08(t *testing.T) {
	defs, err := GetWorkflowDefinitions()
	require.NoError(t, err)

	var os08 *workflow.Definition
	for _, def := range defs {
		if def.OSType == "OS-08" {
			os08 = def
		}
	}
	require.NotNil(t, os08)
	require.NoError(t, os08.Validate())

	eval, err := workflow.BuildEvaluator(os08, expression.NewEngine())
	require.NoError(t, err)

	assert.False(t, eval.IsComplete(1, workflow.Payload{"nome": "Ana"}))
	assert.True(t, eval.IsComplete(1, workflow.Payload{"nome": "Ana", "cpfCnpj": "123.456.789-09"}))
	assert.Equal(t, []string{"responsavelId"}, eval.Missing(2, workflow.Payload{}))
}

func TestInitializeSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	defs, err := GetTableDefinitions()
	require.NoError(t, err)
	for _, def := range defs {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `" + def.TableName + "`")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, InitializeSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAdminUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := persistence.NewUserRepository(db)

	// not configured: no queries
	require.NoError(t, EnsureAdminUser(context.Background(), users, "", ""))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM usuarios WHERE email = ?)")).
		WithArgs("admin@minerva.eng.br").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO usuarios")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, EnsureAdminUser(context.Background(), users, "admin@minerva.eng.br", "Admin123!"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM usuarios WHERE email = ?)")).
		WithArgs("admin@minerva.eng.br").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, EnsureAdminUser(context.Background(), users, "admin@minerva.eng.br", "Admin123!"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
