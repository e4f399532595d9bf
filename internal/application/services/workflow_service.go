package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minerva/erp/internal/domain/events"
	"github.com/minerva/erp/internal/domain/ports"
	"github.com/minerva/erp/internal/domain/workflow"
	"github.com/minerva/erp/pkg/auth"
	appErrors "github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/expression"
)

// SessionView is what the API returns for a wizard session.
type SessionView struct {
	SessionID string    `json:"session_id"`
	OwnerID   string    `json:"owner_id"`
	OpenedAt  time.Time `json:"opened_at"`
	workflow.View
}

type wizardSession struct {
	id         string
	ownerID    string
	openedAt   time.Time
	lastAccess time.Time
	instance   *workflow.Instance
}

// WorkflowService keeps live wizard instances keyed by session id.
type WorkflowService struct {
	registry  *workflow.Registry
	engine    *expression.Engine
	persister workflow.Persister
	publisher ports.EventPublisher
	metrics   *Metrics

	evalMu     sync.Mutex
	evaluators map[string]*workflow.Evaluator

	mu       sync.RWMutex
	sessions map[string]*wizardSession

	now func() time.Time
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(registry *workflow.Registry, engine *expression.Engine, persister workflow.Persister, publisher ports.EventPublisher, metrics *Metrics) *WorkflowService {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &WorkflowService{
		registry:   registry,
		engine:     engine,
		persister:  persister,
		publisher:  publisher,
		metrics:    metrics,
		evaluators: make(map[string]*workflow.Evaluator),
		sessions:   make(map[string]*wizardSession),
		now:        time.Now,
	}
}

// ListDefinitions returns every registered OS wizard.
func (s *WorkflowService) ListDefinitions() []*workflow.Definition {
	return s.registry.List()
}

// GetDefinition returns the wizard registered for an OS type.
func (s *WorkflowService) GetDefinition(osType string) (*workflow.Definition, error) {
	def, ok := s.registry.Get(osType)
	if !ok {
		return nil, appErrors.NewNotFoundError("workflow", osType)
	}
	return def, nil
}

func (s *WorkflowService) evaluator(def *workflow.Definition) (*workflow.Evaluator, error) {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	if eval, ok := s.evaluators[def.OSType]; ok {
		return eval, nil
	}
	eval, err := workflow.BuildEvaluator(def, s.engine)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to compile completion rules", err)
	}
	s.evaluators[def.OSType] = eval
	return eval, nil
}

// Start opens a wizard for a new OS. Definitions without lazy creation
// create the record immediately.
func (s *WorkflowService) Start(ctx context.Context, osType string, user *auth.UserSession) (*SessionView, error) {
	def, err := s.GetDefinition(osType)
	if err != nil {
		return nil, err
	}
	eval, err := s.evaluator(def)
	if err != nil {
		return nil, err
	}

	inst := workflow.NewInstance(def, eval, s.persister, s.instanceOptions(user)...)
	if !def.LazyCreate {
		if err := inst.Initialize(ctx); err != nil {
			log.Printf("❌ Failed to create %s service order: %v", osType, err)
			return nil, mapWorkflowError(err)
		}
	}

	return s.register(ctx, inst, user), nil
}

// Open restores an existing OS into a new wizard session.
func (s *WorkflowService) Open(ctx context.Context, osID string, user *auth.UserSession) (*SessionView, error) {
	record, err := s.persister.LoadRecord(ctx, osID)
	if err != nil {
		if !appErrors.IsNotFound(err) {
			log.Printf("❌ Failed to load OS %s: %v", osID, err)
		}
		return nil, mapWorkflowError(err)
	}
	if record.CreatedByID != user.ID && !user.IsAdmin() {
		log.Printf("⚠️ User %s denied access to OS %s", user.ID, osID)
		return nil, appErrors.NewPermissionError("open", "service order")
	}
	def, err := s.GetDefinition(record.OSType)
	if err != nil {
		return nil, err
	}
	eval, err := s.evaluator(def)
	if err != nil {
		return nil, err
	}
	steps, err := s.persister.LoadSteps(ctx, osID)
	if err != nil {
		return nil, mapWorkflowError(err)
	}

	inst := workflow.Restore(def, eval, s.persister, record, steps, s.instanceOptions(user)...)
	return s.register(ctx, inst, user), nil
}

func (s *WorkflowService) instanceOptions(user *auth.UserSession) []workflow.Option {
	opts := []workflow.Option{workflow.WithOwner(user.ID)}
	if s.publisher != nil {
		opts = append(opts, workflow.WithPublisher(s.publisher))
	}
	return opts
}

func (s *WorkflowService) register(ctx context.Context, inst *workflow.Instance, user *auth.UserSession) *SessionView {
	now := s.now()
	sess := &wizardSession{
		id:         uuid.New().String(),
		ownerID:    user.ID,
		openedAt:   now,
		lastAccess: now,
		instance:   inst,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	osType := inst.Definition().OSType
	s.metrics.SessionOpened(ctx, osType)
	s.publishEvent(ctx, events.SessionStarted, sess)
	log.Printf("✅ Wizard session %s opened for %s by %s", sess.id, osType, user.ID)

	return sess.view()
}

// Get returns the current view of a session.
func (s *WorkflowService) Get(sessionID string, user *auth.UserSession) (*SessionView, error) {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

// ListSessions returns the sessions visible to the user, newest first.
func (s *WorkflowService) ListSessions(user *auth.UserSession) []*SessionView {
	s.mu.RLock()
	var views []*SessionView
	for _, sess := range s.sessions {
		if sess.ownerID == user.ID || user.IsAdmin() {
			views = append(views, sess.view())
		}
	}
	s.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		return views[i].OpenedAt.After(views[j].OpenedAt)
	})
	return views
}

// Close discards a session. Unsaved step data is lost.
func (s *WorkflowService) Close(ctx context.Context, sessionID string, user *auth.UserSession) error {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return err
	}
	s.remove(ctx, sess)
	return nil
}

// SweepIdle closes sessions untouched for longer than maxIdle and returns
// how many were closed.
func (s *WorkflowService) SweepIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.RLock()
	var idle []*wizardSession
	for _, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			idle = append(idle, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range idle {
		s.remove(ctx, sess)
	}
	if len(idle) > 0 {
		log.Printf("🧹 Closed %d idle wizard sessions", len(idle))
	}
	return len(idle)
}

func (s *WorkflowService) remove(ctx context.Context, sess *wizardSession) {
	s.mu.Lock()
	_, ok := s.sessions[sess.id]
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.metrics.SessionClosed(ctx, sess.instance.Definition().OSType)
	s.publishEvent(ctx, events.SessionClosed, sess)
}

// SessionCount returns the number of live sessions.
func (s *WorkflowService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SetStepData replaces the form data of one step.
func (s *WorkflowService) SetStepData(sessionID string, step int, payload workflow.Payload, user *auth.UserSession) (*SessionView, error) {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return nil, err
	}
	if err := sess.instance.SetStepData(step, payload); err != nil {
		return nil, mapWorkflowError(err)
	}
	return sess.view(), nil
}

// Next saves the current step and advances.
func (s *WorkflowService) Next(ctx context.Context, sessionID string, user *auth.UserSession) (*SessionView, error) {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return nil, err
	}

	historical := sess.instance.IsHistorical()
	started := s.now()
	err = sess.instance.Next(ctx)
	if !historical {
		s.recordSave(ctx, sess, false, started, err)
	}
	if err != nil {
		return nil, mapWorkflowError(err)
	}
	return sess.view(), nil
}

// SaveDraft writes the current step as a draft.
func (s *WorkflowService) SaveDraft(ctx context.Context, sessionID string, user *auth.UserSession) (*SessionView, error) {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return nil, err
	}

	started := s.now()
	err = sess.instance.SaveDraft(ctx)
	s.recordSave(ctx, sess, true, started, err)
	if err != nil {
		return nil, mapWorkflowError(err)
	}
	return sess.view(), nil
}

// Prev moves back one step without saving.
func (s *WorkflowService) Prev(sessionID string, user *auth.UserSession) (*SessionView, error) {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return nil, err
	}
	sess.instance.Prev()
	return sess.view(), nil
}

// JumpTo opens a completed step (or the current one).
func (s *WorkflowService) JumpTo(sessionID string, step int, user *auth.UserSession) (*SessionView, error) {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return nil, err
	}
	if !sess.instance.JumpTo(step) {
		return nil, appErrors.NewValidationError("step", fmt.Sprintf("step %d is not reachable", step))
	}
	return sess.view(), nil
}

// ReturnToActive leaves historical browsing.
func (s *WorkflowService) ReturnToActive(sessionID string, user *auth.UserSession) (*SessionView, error) {
	sess, err := s.session(sessionID, user)
	if err != nil {
		return nil, err
	}
	sess.instance.ReturnToActive()
	return sess.view(), nil
}

func (s *WorkflowService) session(sessionID string, user *auth.UserSession) (*wizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, appErrors.NewNotFoundError("wizard session", sessionID)
	}
	if sess.ownerID != user.ID && !user.IsAdmin() {
		return nil, appErrors.NewPermissionError("access", "wizard session")
	}
	sess.lastAccess = s.now()
	return sess, nil
}

// recordSave counts attempted writes. Rejections that never reach the
// database are not writes.
func (s *WorkflowService) recordSave(ctx context.Context, sess *wizardSession, draft bool, started time.Time, err error) {
	if err != nil && appErrors.IsValidation(mapWorkflowError(err)) {
		return
	}
	s.metrics.RecordSave(ctx, sess.instance.Definition().OSType, draft, started, err)
}

func (s *WorkflowService) publishEvent(ctx context.Context, eventType events.EventType, sess *wizardSession) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"session_id": sess.id,
		"os_type":    sess.instance.Definition().OSType,
		"os_id":      sess.instance.OSID(),
		"user_id":    sess.ownerID,
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		log.Printf("⚠️ Failed to publish %s: %v", eventType, err)
	}
}

func (sess *wizardSession) view() *SessionView {
	return &SessionView{
		SessionID: sess.id,
		OwnerID:   sess.ownerID,
		OpenedAt:  sess.openedAt,
		View:      sess.instance.Snapshot(),
	}
}

// mapWorkflowError turns domain errors into AppErrors. Errors that are
// already AppErrors (conflicts, not found) pass through.
func mapWorkflowError(err error) error {
	var incomplete *workflow.IncompleteStepError
	switch {
	case errors.As(err, &incomplete):
		missing := incomplete.Missing
		if missing == nil {
			missing = []string{}
		}
		return appErrors.NewValidationError("step", incomplete.Error()).
			WithDetails(map[string]interface{}{"step": incomplete.Step, "missing": missing})
	case errors.Is(err, workflow.ErrReadOnly):
		return appErrors.NewValidationError("step", workflow.ErrReadOnly.Error())
	case errors.Is(err, workflow.ErrInvalidStep):
		return appErrors.NewValidationError("step", err.Error())
	case errors.Is(err, workflow.ErrNotInitialized):
		return appErrors.NewValidationError("os_id", workflow.ErrNotInitialized.Error())
	}

	var appErr appErrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.NewInternalError("workflow operation failed", err)
}
