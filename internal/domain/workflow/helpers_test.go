package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/minerva/erp/internal/domain/events"
	"github.com/minerva/erp/internal/domain/ports"
	"github.com/minerva/erp/pkg/expression"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPersister mocks the Persister port
type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) CreateRecord(ctx context.Context, osType string, seed Payload, createdBy string) (Record, error) {
	args := m.Called(ctx, osType, seed, createdBy)
	return args.Get(0).(Record), args.Error(1)
}

func (m *MockPersister) SaveStep(ctx context.Context, w StepWrite) (int64, error) {
	args := m.Called(ctx, w)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersister) LoadRecord(ctx context.Context, osID string) (Record, error) {
	args := m.Called(ctx, osID)
	return args.Get(0).(Record), args.Error(1)
}

func (m *MockPersister) LoadSteps(ctx context.Context, osID string) ([]StepRecord, error) {
	args := m.Called(ctx, osID)
	return args.Get(0).([]StepRecord), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EventType
}

func (p *recordingPublisher) Subscribe(events.EventType, ports.EventHandler) func() {
	return func() {}
}

func (p *recordingPublisher) Publish(_ context.Context, eventType events.EventType, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.EventType(nil), p.events...)
}

// testDefinition: step 1 has an expression rule, step 2 required fields,
// step 3 is optional with no rule.
func testDefinition(gating GatingMode) *Definition {
	return &Definition{
		OSType:     "OS-08",
		Name:       "Visita Técnica",
		Gating:     gating,
		LazyCreate: true,
		Steps: []StepDefinition{
			{ID: 1, Title: "Identificação do Cliente", Rule: "PRESENT(nome) && CPF_CNPJ(cpfCnpj)"},
			{ID: 2, Title: "Dados da Visita", RequiredFields: []string{"endereco", "dataVisita"}},
			{ID: 3, Title: "Anexos", Optional: true},
		},
	}
}

func newTestInstance(t *testing.T, gating GatingMode, opts ...Option) (*Instance, *MockPersister) {
	t.Helper()
	def := testDefinition(gating)
	require.NoError(t, def.Validate())
	eval, err := BuildEvaluator(def, expression.NewEngine())
	require.NoError(t, err)

	persister := new(MockPersister)
	return NewInstance(def, eval, persister, opts...), persister
}

func validStep1() Payload {
	return Payload{"nome": "Construtora Alfa", "cpfCnpj": "12.345.678/0001-90"}
}

func validStep2() Payload {
	return Payload{"endereco": "Rua A, 100", "dataVisita": "2025-12-17"}
}

func stepWrite(step int, draft bool) interface{} {
	return mock.MatchedBy(func(w StepWrite) bool { return w.Step == step && w.Draft == draft })
}

// expectCreate wires a successful lazy creation
func expectCreate(p *MockPersister) {
	p.On("CreateRecord", mock.Anything, "OS-08", mock.Anything, mock.Anything).
		Return(Record{ID: "os-1", Codigo: "OS-08-2025-0001", OSType: "OS-08", Status: "rascunho"}, nil).Once()
}
