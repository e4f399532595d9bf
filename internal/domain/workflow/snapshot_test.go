package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	inst, persister := newTestInstance(t, GatingBlock)
	expectCreate(persister)
	persister.On("SaveStep", mock.Anything, stepWrite(1, false)).Return(int64(1), nil).Once()

	require.NoError(t, inst.SetStepData(1, validStep1()))
	require.NoError(t, inst.Next(context.Background()))
	require.NoError(t, inst.SetStepData(2, Payload{"endereco": "Rua A"}))

	view := inst.Snapshot()

	assert.Equal(t, "OS-08", view.OSType)
	assert.Equal(t, "os-1", view.OSID)
	assert.Equal(t, 2, view.CurrentStep)
	assert.Equal(t, 33, view.Progress)
	assert.Equal(t, []int{1}, view.Completed)
	assert.False(t, view.Finished)
	require.Len(t, view.Steps, 3)
	assert.Equal(t, StatusDone, view.Steps[0].Status)
	assert.Equal(t, int64(1), view.Steps[0].Version)
	assert.Equal(t, StatusActive, view.Steps[1].Status)
	assert.Equal(t, []string{"dataVisita"}, view.Steps[1].Missing)
	assert.Equal(t, StatusPending, view.Steps[2].Status)
	assert.Equal(t, "Rua A", view.CurrentData["endereco"])

	// the view is detached from the instance
	view.CurrentData["endereco"] = "changed"
	assert.Equal(t, "Rua A", inst.GetStepData(2, nil)["endereco"])
}

func TestSnapshot_FreshInstance(t *testing.T) {
	inst, _ := newTestInstance(t, GatingBlock)
	view := inst.Snapshot()

	assert.Equal(t, 0, view.Progress)
	assert.Empty(t, view.Completed)
	assert.Empty(t, view.OSID)
	assert.Equal(t, StatusActive, view.Steps[0].Status)
}
