package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_ValidateFillsDefaults(t *testing.T) {
	def := &Definition{OSType: "OS-01", Steps: []StepDefinition{{ID: 1, Title: "Início"}}}
	require.NoError(t, def.Validate())

	assert.Equal(t, GatingBlock, def.Gating)
	assert.Equal(t, MissingRuleComplete, def.MissingRule)
	assert.Equal(t, StatusPending, def.Steps[0].InitialStatus)
}

func TestDefinition_ValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"no os type", Definition{Steps: []StepDefinition{{ID: 1, Title: "A"}}}},
		{"no steps", Definition{OSType: "OS-01"}},
		{"gap in ids", Definition{OSType: "OS-01", Steps: []StepDefinition{{ID: 1, Title: "A"}, {ID: 3, Title: "B"}}}},
		{"starts at zero", Definition{OSType: "OS-01", Steps: []StepDefinition{{ID: 0, Title: "A"}}}},
		{"missing title", Definition{OSType: "OS-01", Steps: []StepDefinition{{ID: 1}}}},
		{"bad gating", Definition{OSType: "OS-01", Gating: "soft", Steps: []StepDefinition{{ID: 1, Title: "A"}}}},
		{"bad status", Definition{OSType: "OS-01", Steps: []StepDefinition{{ID: 1, Title: "A", InitialStatus: "skipped"}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := tc.def
			assert.Error(t, def.Validate())
		})
	}
}

func TestDefinition_StepLookup(t *testing.T) {
	def := testDefinition(GatingBlock)

	step, ok := def.Step(2)
	assert.True(t, ok)
	assert.Equal(t, "Dados da Visita", step.Title)

	_, ok = def.Step(0)
	assert.False(t, ok)
	_, ok = def.Step(4)
	assert.False(t, ok)

	assert.Equal(t, 3, def.LastStep())

	steps := def.StepList()
	steps[0].Title = "changed"
	assert.Equal(t, "Identificação do Cliente", def.Steps[0].Title)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Definition{OSType: "OS-09", Steps: []StepDefinition{{ID: 1, Title: "A"}}}))
	require.NoError(t, reg.Register(testDefinition(GatingBlock)))

	err := reg.Register(testDefinition(GatingBlock))
	assert.Error(t, err, "duplicate os type")

	def, ok := reg.Get("OS-08")
	require.True(t, ok)
	assert.Equal(t, "Visita Técnica", def.Name)

	_, ok = reg.Get("OS-99")
	assert.False(t, ok)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "OS-08", list[0].OSType)
	assert.Equal(t, "OS-09", list[1].OSType)
}
