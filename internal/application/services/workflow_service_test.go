package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/minerva/erp/internal/domain"
	"github.com/minerva/erp/internal/domain/events"
	"github.com/minerva/erp/internal/domain/workflow"
	"github.com/minerva/erp/pkg/auth"
	appErrors "github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/expression"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) CreateRecord(ctx context.Context, osType string, seed workflow.Payload, createdBy string) (workflow.Record, error) {
	args := m.Called(ctx, osType, seed, createdBy)
	return args.Get(0).(workflow.Record), args.Error(1)
}

func (m *MockPersister) SaveStep(ctx context.Context, w workflow.StepWrite) (int64, error) {
	args := m.Called(ctx, w)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersister) LoadRecord(ctx context.Context, osID string) (workflow.Record, error) {
	args := m.Called(ctx, osID)
	return args.Get(0).(workflow.Record), args.Error(1)
}

func (m *MockPersister) LoadSteps(ctx context.Context, osID string) ([]workflow.StepRecord, error) {
	args := m.Called(ctx, osID)
	return args.Get(0).([]workflow.StepRecord), args.Error(1)
}

var (
	gestor = &auth.UserSession{ID: "u-1", Name: "Gestor", Role: "gestor"}
	outro  = &auth.UserSession{ID: "u-2", Name: "Outro", Role: "colaborador"}
	admin  = &auth.UserSession{ID: "u-3", Name: "Admin", Role: "admin"}
)

func newTestWorkflowService(t *testing.T) (*WorkflowService, *MockPersister, *EventBus) {
	t.Helper()

	registry := workflow.NewRegistry()
	require.NoError(t, registry.Register(&workflow.Definition{
		OSType:     "OS-T",
		Name:       "Teste",
		LazyCreate: true,
		Steps: []workflow.StepDefinition{
			{ID: 1, Title: "Cliente", RequiredFields: []string{"nome"}},
			{ID: 2, Title: "Visita", RequiredFields: []string{"dataVisita"}},
		},
	}))
	require.NoError(t, registry.Register(&workflow.Definition{
		OSType: "OS-E",
		Name:   "Eager",
		Steps:  []workflow.StepDefinition{{ID: 1, Title: "Dados"}},
	}))

	persister := new(MockPersister)
	bus := NewEventBus()
	svc := NewWorkflowService(registry, expression.NewEngine(), persister, bus, NewMetrics())
	return svc, persister, bus
}

func TestWorkflowService_StartLazy(t *testing.T) {
	svc, persister, bus := newTestWorkflowService(t)

	var started int
	bus.Subscribe(events.SessionStarted, func(ctx context.Context, payload interface{}) error {
		started++
		return nil
	})

	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, "u-1", view.OwnerID)
	assert.Equal(t, domain.PhaseDraft, view.Phase)
	assert.Equal(t, 1, view.CurrentStep)
	assert.Empty(t, view.OSID)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, svc.SessionCount())
	persister.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflowService_StartEagerCreatesRecord(t *testing.T) {
	svc, persister, _ := newTestWorkflowService(t)

	persister.On("CreateRecord", mock.Anything, "OS-E", mock.Anything, "u-1").
		Return(workflow.Record{ID: "os-9", Codigo: "OS-E-2025-0001", OSType: "OS-E"}, nil)

	view, err := svc.Start(context.Background(), "OS-E", gestor)
	require.NoError(t, err)
	assert.Equal(t, "os-9", view.OSID)
	assert.Equal(t, domain.PhaseActive, view.Phase)
	persister.AssertExpectations(t)
}

func TestWorkflowService_StartUnknownType(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)

	_, err := svc.Start(context.Background(), "OS-99", gestor)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestWorkflowService_NextBlockedReportsMissingFields(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	_, err = svc.Next(context.Background(), view.SessionID, gestor)
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))

	details, ok := appErrors.GetDetails(err).(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1, details["step"])
	assert.Equal(t, []string{"nome"}, details["missing"])
}

func TestWorkflowService_NextCreatesAndAdvances(t *testing.T) {
	svc, persister, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	persister.On("CreateRecord", mock.Anything, "OS-T", workflow.Payload{"nome": "Ana"}, "u-1").
		Return(workflow.Record{ID: "os-1", Codigo: "OS-T-2025-0001", OSType: "OS-T"}, nil)
	persister.On("SaveStep", mock.Anything, mock.MatchedBy(func(w workflow.StepWrite) bool {
		return w.OSID == "os-1" && w.Step == 1 && !w.Draft && w.ExpectedVersion == 0
	})).Return(int64(1), nil)

	_, err = svc.SetStepData(view.SessionID, 1, workflow.Payload{"nome": "Ana"}, gestor)
	require.NoError(t, err)

	view, err = svc.Next(context.Background(), view.SessionID, gestor)
	require.NoError(t, err)
	assert.Equal(t, "os-1", view.OSID)
	assert.Equal(t, "OS-T-2025-0001", view.Codigo)
	assert.Equal(t, 2, view.CurrentStep)
	assert.Equal(t, []int{1}, view.Completed)
	assert.Equal(t, 50, view.Progress)
	persister.AssertExpectations(t)
}

func TestWorkflowService_ConflictPassesThrough(t *testing.T) {
	svc, persister, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	persister.On("CreateRecord", mock.Anything, "OS-T", mock.Anything, "u-1").
		Return(workflow.Record{ID: "os-1", OSType: "OS-T"}, nil)
	persister.On("SaveStep", mock.Anything, mock.Anything).
		Return(int64(0), appErrors.NewConflictError("os_etapa", "os-1/1", 0, 3))

	_, err = svc.SetStepData(view.SessionID, 1, workflow.Payload{"nome": "Ana"}, gestor)
	require.NoError(t, err)

	_, err = svc.Next(context.Background(), view.SessionID, gestor)
	assert.True(t, appErrors.IsConflict(err))

	current, err := svc.Get(view.SessionID, gestor)
	require.NoError(t, err)
	assert.Equal(t, 1, current.CurrentStep)
}

func TestWorkflowService_SaveDraftBeforeCreate(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	_, err = svc.SaveDraft(context.Background(), view.SessionID, gestor)
	assert.True(t, appErrors.IsValidation(err))
}

func TestWorkflowService_SetStepDataErrors(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	_, err = svc.SetStepData(view.SessionID, 7, workflow.Payload{}, gestor)
	assert.True(t, appErrors.IsValidation(err))

	// step 2 cannot be edited before the OS exists
	_, err = svc.SetStepData(view.SessionID, 2, workflow.Payload{"dataVisita": "2025-12-16"}, gestor)
	assert.True(t, appErrors.IsValidation(err))
}

func TestWorkflowService_SessionOwnership(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	_, err = svc.Get(view.SessionID, outro)
	assert.True(t, appErrors.IsPermission(err))

	_, err = svc.Get(view.SessionID, admin)
	assert.NoError(t, err)

	assert.Len(t, svc.ListSessions(gestor), 1)
	assert.Empty(t, svc.ListSessions(outro))
	assert.Len(t, svc.ListSessions(admin), 1)

	_, err = svc.Get("missing", gestor)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestWorkflowService_OpenRestoresExistingOS(t *testing.T) {
	svc, persister, _ := newTestWorkflowService(t)

	persister.On("LoadRecord", mock.Anything, "os-1").
		Return(workflow.Record{ID: "os-1", Codigo: "OS-T-2025-0001", OSType: "OS-T", LastActiveStep: 1, CreatedByID: "u-1"}, nil)
	persister.On("LoadSteps", mock.Anything, "os-1").
		Return([]workflow.StepRecord{{Step: 1, Payload: workflow.Payload{"nome": "Ana"}, Version: 2}}, nil)

	view, err := svc.Open(context.Background(), "os-1", gestor)
	require.NoError(t, err)
	assert.Equal(t, 2, view.CurrentStep)
	assert.Equal(t, 2, view.LastActiveStep)
	assert.Equal(t, domain.PhaseActive, view.Phase)

	view, err = svc.JumpTo(view.SessionID, 1, gestor)
	require.NoError(t, err)
	assert.True(t, view.Historical)

	// historical steps are read-only
	_, err = svc.SetStepData(view.SessionID, 1, workflow.Payload{"nome": "Bia"}, gestor)
	assert.True(t, appErrors.IsValidation(err))

	view, err = svc.ReturnToActive(view.SessionID, gestor)
	require.NoError(t, err)
	assert.False(t, view.Historical)
	assert.Equal(t, 2, view.CurrentStep)

	view, err = svc.Prev(view.SessionID, gestor)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentStep)
}

func TestWorkflowService_OpenChecksOwnership(t *testing.T) {
	svc, persister, _ := newTestWorkflowService(t)

	persister.On("LoadRecord", mock.Anything, "os-1").
		Return(workflow.Record{ID: "os-1", OSType: "OS-T", LastActiveStep: 1, CreatedByID: "u-1"}, nil)
	persister.On("LoadSteps", mock.Anything, "os-1").Return([]workflow.StepRecord{}, nil).Once()

	_, err := svc.Open(context.Background(), "os-1", outro)
	require.Error(t, err)
	assert.True(t, appErrors.IsPermission(err))
	assert.Equal(t, 403, appErrors.GetHTTPStatus(err))
	assert.Equal(t, 0, svc.SessionCount())

	view, err := svc.Open(context.Background(), "os-1", admin)
	require.NoError(t, err)
	assert.Equal(t, "u-3", view.OwnerID)
	persister.AssertExpectations(t)
}

func TestWorkflowService_OpenMissingOS(t *testing.T) {
	svc, persister, _ := newTestWorkflowService(t)

	persister.On("LoadRecord", mock.Anything, "nope").
		Return(workflow.Record{}, appErrors.NewNotFoundError("ordens_servico", "nope"))

	_, err := svc.Open(context.Background(), "nope", gestor)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestWorkflowService_JumpToUnreachable(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	_, err = svc.JumpTo(view.SessionID, 2, gestor)
	assert.True(t, appErrors.IsValidation(err))
}

func TestWorkflowService_SweepIdle(t *testing.T) {
	svc, _, bus := newTestWorkflowService(t)

	now := time.Date(2025, 12, 16, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	var closed int
	bus.Subscribe(events.SessionClosed, func(ctx context.Context, payload interface{}) error {
		closed++
		return nil
	})

	old, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	fresh, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, svc.SweepIdle(context.Background(), 30*time.Minute))
	assert.Equal(t, 1, closed)

	_, err = svc.Get(old.SessionID, gestor)
	assert.True(t, appErrors.IsNotFound(err))
	_, err = svc.Get(fresh.SessionID, gestor)
	assert.NoError(t, err)
}

func TestWorkflowService_Close(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	view, err := svc.Start(context.Background(), "OS-T", gestor)
	require.NoError(t, err)

	assert.True(t, appErrors.IsPermission(svc.Close(context.Background(), view.SessionID, outro)))
	require.NoError(t, svc.Close(context.Background(), view.SessionID, gestor))
	assert.Equal(t, 0, svc.SessionCount())
}

func TestMapWorkflowError(t *testing.T) {
	err := mapWorkflowError(errors.New("boom"))
	assert.Equal(t, 500, appErrors.GetHTTPStatus(err))

	err = mapWorkflowError(workflow.ErrReadOnly)
	assert.Equal(t, 400, appErrors.GetHTTPStatus(err))

	conflict := appErrors.NewConflictError("os_etapa", "x", 1, 2)
	assert.Same(t, conflict, mapWorkflowError(conflict))
}

// countingMeter counts Int64Counter adds by instrument name.
type countingMeter struct {
	noop.Meter
	mu     sync.Mutex
	counts map[string]int64
}

func newCountingMeter() *countingMeter {
	return &countingMeter{counts: make(map[string]int64)}
}

func (m *countingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return countingCounter{meter: m, name: name}, nil
}

func (m *countingMeter) count(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

type countingCounter struct {
	noop.Int64Counter
	meter *countingMeter
	name  string
}

func (c countingCounter) Add(_ context.Context, n int64, _ ...metric.AddOption) {
	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()
	c.meter.counts[c.name] += n
}

func TestWorkflowService_RejectedStepsAreNotWrites(t *testing.T) {
	svc, persister, _ := newTestWorkflowService(t)
	meter := newCountingMeter()
	svc.metrics = NewMetricsWithMeter(meter)
	ctx := context.Background()

	view, err := svc.Start(ctx, "OS-T", gestor)
	require.NoError(t, err)

	_, err = svc.Next(ctx, view.SessionID, gestor)
	assert.True(t, appErrors.IsValidation(err))
	_, err = svc.SaveDraft(ctx, view.SessionID, gestor)
	assert.True(t, appErrors.IsValidation(err))
	assert.Zero(t, meter.count("minerva.workflow.step_saves"))

	persister.On("CreateRecord", mock.Anything, "OS-T", mock.Anything, "u-1").
		Return(workflow.Record{ID: "os-1", OSType: "OS-T"}, nil)
	persister.On("SaveStep", mock.Anything, mock.Anything).Return(int64(1), nil).Once()
	persister.On("SaveStep", mock.Anything, mock.Anything).
		Return(int64(0), appErrors.NewConflictError("os_etapa", "os-1/2", 0, 1)).Once()

	_, err = svc.SetStepData(view.SessionID, 1, workflow.Payload{"nome": "Ana"}, gestor)
	require.NoError(t, err)
	_, err = svc.Next(ctx, view.SessionID, gestor)
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, view.SessionID, gestor)
	assert.True(t, appErrors.IsConflict(err))

	assert.Equal(t, int64(2), meter.count("minerva.workflow.step_saves"))
}
