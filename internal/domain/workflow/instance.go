package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/minerva/erp/internal/domain"
	"github.com/minerva/erp/internal/domain/events"
	"github.com/minerva/erp/internal/domain/ports"
	"github.com/minerva/erp/pkg/constants"
)

var (
	ErrReadOnly       = errors.New("step data is read-only while browsing completed steps")
	ErrInvalidStep    = errors.New("invalid step")
	ErrNotInitialized = errors.New("service order has not been created yet")
)

// IncompleteStepError is returned by Next when gating blocks an incomplete step.
type IncompleteStepError struct {
	Step    int
	Missing []string
}

func (e *IncompleteStepError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("step %d is incomplete", e.Step)
	}
	return fmt.Sprintf("step %d is incomplete: missing %s", e.Step, strings.Join(e.Missing, ", "))
}

// Instance is one wizard bound to (at most) one OS record.
type Instance struct {
	mu sync.Mutex

	def       *Definition
	eval      *Evaluator
	persister Persister
	publisher ports.EventPublisher
	machine   *domain.WorkflowStateMachine

	phase      domain.WorkflowPhase
	record     Record
	owner      string
	data       *FormData
	current    int
	lastActive int
	historical bool
	saved      map[int]bool
	versions   map[int]int64

	// events raised under mu, published once it is released
	pending []pendingEvent
}

type pendingEvent struct {
	eventType events.EventType
	payload   interface{}
}

// Option configures an Instance
type Option func(*Instance)

// WithPublisher publishes save events to p
func WithPublisher(p ports.EventPublisher) Option {
	return func(i *Instance) { i.publisher = p }
}

// WithOwner records the user creating the OS
func WithOwner(userID string) Option {
	return func(i *Instance) { i.owner = userID }
}

// NewInstance starts a wizard at step 1 with no backing record.
func NewInstance(def *Definition, eval *Evaluator, persister Persister, opts ...Option) *Instance {
	inst := &Instance{
		def:        def,
		eval:       eval,
		persister:  persister,
		machine:    domain.NewWorkflowStateMachine(),
		phase:      domain.PhaseDraft,
		data:       NewFormData(),
		current:    1,
		lastActive: 1,
		saved:      make(map[int]bool),
		versions:   make(map[int]int64),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Restore rebuilds an instance from a persisted OS. It resumes on the last
// active step.
func Restore(def *Definition, eval *Evaluator, persister Persister, record Record, steps []StepRecord, opts ...Option) *Instance {
	inst := NewInstance(def, eval, persister, opts...)
	inst.record = record
	inst.phase = domain.PhaseActive

	highestSaved := 0
	for _, s := range steps {
		if !def.HasStep(s.Step) {
			log.Printf("⚠️ OS %s has data for unknown step %d, ignoring", record.ID, s.Step)
			continue
		}
		inst.data.Set(s.Step, s.Payload)
		inst.versions[s.Step] = s.Version
		if !s.Draft {
			inst.saved[s.Step] = true
			if s.Step > highestSaved {
				highestSaved = s.Step
			}
		}
	}

	last := record.LastActiveStep
	if next := highestSaved + 1; next > last {
		last = next
	}
	if last > def.LastStep() {
		last = def.LastStep()
	}
	if last < 1 {
		last = 1
	}
	inst.lastActive = last
	inst.current = last

	if inst.allSatisfiedLocked() {
		inst.phase = domain.PhaseCompleted
	}
	return inst
}

// Initialize creates the backing record now. Used by wizards without lazy creation.
func (i *Instance) Initialize(ctx context.Context) error {
	i.mu.Lock()
	defer i.unlockAndPublish(ctx)
	if i.record.ID != "" {
		return nil
	}
	return i.createRecordLocked(ctx, i.data.Get(1, Payload{}))
}

func (i *Instance) Definition() *Definition { return i.def }

func (i *Instance) OSID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.record.ID
}

func (i *Instance) Record() Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.record
}

func (i *Instance) Phase() domain.WorkflowPhase {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.phase
}

func (i *Instance) CurrentStep() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

func (i *Instance) LastActiveStep() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastActive
}

func (i *Instance) IsHistorical() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.historical
}

// GetStepData returns a copy of the step payload or def.
func (i *Instance) GetStepData(step int, def Payload) Payload {
	return i.data.Get(step, def)
}

// Subscribe forwards to the form data store.
func (i *Instance) Subscribe(fn func(step int, p Payload)) func() {
	return i.data.Subscribe(fn)
}

// SetStepData replaces a step payload. Rejected while browsing history and,
// before the OS exists, for any step but the first.
func (i *Instance) SetStepData(step int, p Payload) error {
	notify, err := i.setStepData(step, p)
	if err != nil {
		return err
	}
	notify()
	return nil
}

func (i *Instance) setStepData(step int, p Payload) (func(), error) {
	ctx := context.Background()
	i.mu.Lock()
	defer i.unlockAndPublish(ctx)

	if !i.def.HasStep(step) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if i.historical {
		return nil, ErrReadOnly
	}
	if i.phase == domain.PhaseDraft && step != 1 {
		return nil, ErrNotInitialized
	}

	notify := i.data.put(step, p)
	i.syncPhaseLocked()
	return notify, nil
}

// IsComplete evaluates the step rule against its current data. It does not
// look at whether the step was saved.
func (i *Instance) IsComplete(step int) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.isCompleteLocked(step)
}

// IsStepCompleted reports saved && complete.
func (i *Instance) IsStepCompleted(step int) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.isStepCompletedLocked(step)
}

// CompletedSteps lists completed step ids in ascending order.
func (i *Instance) CompletedSteps() []int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.completedStepsLocked()
}

// Missing lists the required fields still blank on a step.
func (i *Instance) Missing(step int) []string {
	return i.eval.Missing(step, i.data.Get(step, Payload{}))
}

// Finished reports whether every step is completed, counting saved steps
// that cannot block (optional, or any step under advisory gating).
func (i *Instance) Finished() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.allSatisfiedLocked()
}

// Next saves the current step and advances. While browsing history it only
// moves forward among visited steps.
func (i *Instance) Next(ctx context.Context) error {
	i.mu.Lock()
	defer i.unlockAndPublish(ctx)

	if i.historical {
		if i.current < i.lastActive {
			i.current++
		}
		i.historical = i.current != i.lastActive
		return nil
	}

	step := i.current
	payload := i.data.Get(step, Payload{})
	if !i.eval.IsComplete(step, payload) && i.blocksLocked(step) {
		return &IncompleteStepError{Step: step, Missing: i.eval.Missing(step, payload)}
	}

	if err := i.saveLocked(ctx, step, false); err != nil {
		return err
	}

	if i.current < i.def.LastStep() {
		i.current++
	}
	if i.current > i.lastActive {
		i.lastActive = i.current
	}
	i.historical = false
	return nil
}

// Prev moves one step back without persisting.
func (i *Instance) Prev() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.current > 1 {
		i.current--
	}
	i.historical = i.current != i.lastActive
}

// JumpTo moves to a completed step, a saved step that cannot block, or the
// current one. Anything else is a no-op returning false.
func (i *Instance) JumpTo(step int) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.def.HasStep(step) {
		return false
	}
	if step != i.current && !i.isStepSatisfiedLocked(step) {
		return false
	}
	i.current = step
	i.historical = step != i.lastActive
	return true
}

// ReturnToActive leaves history browsing.
func (i *Instance) ReturnToActive() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.current = i.lastActive
	i.historical = false
}

// SaveDraft writes the current step as a draft. Drafts never complete a step.
func (i *Instance) SaveDraft(ctx context.Context) error {
	return i.SaveStep(ctx, true)
}

// SaveStep writes the current step without moving.
func (i *Instance) SaveStep(ctx context.Context, draft bool) error {
	i.mu.Lock()
	defer i.unlockAndPublish(ctx)

	if i.historical {
		return ErrReadOnly
	}
	return i.saveLocked(ctx, i.current, draft)
}

func (i *Instance) saveLocked(ctx context.Context, step int, draft bool) error {
	if i.record.ID == "" {
		if draft {
			return ErrNotInitialized
		}
		if err := i.createRecordLocked(ctx, i.data.Get(1, Payload{})); err != nil {
			return err
		}
	}

	lastActive := i.lastActive
	status := constants.OSStatusEmAndamento
	if !draft {
		if step == i.current && step < i.def.LastStep() && step+1 > lastActive {
			lastActive = step + 1
		}
		if i.wouldFinishLocked(step) {
			status = constants.OSStatusConcluida
		}
	}

	write := StepWrite{
		OSID:            i.record.ID,
		Step:            step,
		Payload:         i.data.Get(step, Payload{}),
		Draft:           draft,
		ExpectedVersion: i.versions[step],
		CurrentStep:     i.current,
		LastActiveStep:  lastActive,
		Status:          status,
	}
	version, err := i.persister.SaveStep(ctx, write)
	if err != nil {
		return fmt.Errorf("save step %d of OS %s: %w", step, i.record.ID, err)
	}

	i.versions[step] = version
	i.saved[step] = !draft
	i.record.Status = status
	i.record.LastActiveStep = lastActive

	if !draft && i.def.RefreshAfterSave {
		if rec, err := i.persister.LoadRecord(ctx, i.record.ID); err != nil {
			log.Printf("⚠️ Failed to refresh OS %s after save: %v", i.record.ID, err)
		} else {
			i.record = rec
		}
	}

	eventType := events.StepSaved
	if draft {
		eventType = events.StepDraftSaved
	}
	i.publish(eventType, events.StepSavedPayload{
		OSID:    i.record.ID,
		OSType:  i.def.OSType,
		Step:    step,
		Draft:   draft,
		Version: version,
		UserID:  i.owner,
	})

	i.syncPhaseLocked()
	return nil
}

func (i *Instance) createRecordLocked(ctx context.Context, seed Payload) error {
	rec, err := i.persister.CreateRecord(ctx, i.def.OSType, seed, i.owner)
	if err != nil {
		return fmt.Errorf("create %s service order: %w", i.def.OSType, err)
	}
	phase, err := i.machine.Transition(i.phase, domain.TransitionCreate)
	if err != nil {
		return err
	}
	i.record = rec
	i.phase = phase

	i.publish(events.OSCreated, events.OSCreatedPayload{
		OSID:   rec.ID,
		Codigo: rec.Codigo,
		OSType: i.def.OSType,
		UserID: i.owner,
	})
	return nil
}

// syncPhaseLocked moves between Active and Completed to match the computed
// completion of all steps.
func (i *Instance) syncPhaseLocked() {
	all := i.allSatisfiedLocked()
	switch {
	case i.phase == domain.PhaseActive && all:
		i.phase, _ = i.machine.Transition(i.phase, domain.TransitionComplete)
		i.publish(events.WorkflowCompleted, events.OSCreatedPayload{
			OSID:   i.record.ID,
			Codigo: i.record.Codigo,
			OSType: i.def.OSType,
			UserID: i.owner,
		})
	case i.phase == domain.PhaseCompleted && !all:
		i.phase, _ = i.machine.Transition(i.phase, domain.TransitionReopen)
	}
}

// publish queues an event. Callers hold mu.
func (i *Instance) publish(eventType events.EventType, payload interface{}) {
	if i.publisher == nil {
		return
	}
	i.pending = append(i.pending, pendingEvent{eventType: eventType, payload: payload})
}

// unlockAndPublish releases mu and then delivers queued events, so handlers
// may read the instance.
func (i *Instance) unlockAndPublish(ctx context.Context) {
	queued := i.pending
	i.pending = nil
	i.mu.Unlock()

	for _, ev := range queued {
		if err := i.publisher.Publish(ctx, ev.eventType, ev.payload); err != nil {
			log.Printf("⚠️ Failed to publish %s: %v", ev.eventType, err)
		}
	}
}

func (i *Instance) isCompleteLocked(step int) bool {
	if step == DraftStep {
		return i.record.ID != ""
	}
	if !i.def.HasStep(step) {
		return false
	}
	return i.eval.IsComplete(step, i.data.Get(step, Payload{}))
}

func (i *Instance) isStepCompletedLocked(step int) bool {
	if step == DraftStep {
		return i.record.ID != ""
	}
	return i.saved[step] && i.isCompleteLocked(step)
}

// isStepSatisfiedLocked is completion as far as finishing the wizard goes:
// a saved step that gating would not have blocked counts even when its rule
// does not hold.
func (i *Instance) isStepSatisfiedLocked(step int) bool {
	if i.isStepCompletedLocked(step) {
		return true
	}
	return i.saved[step] && !i.blocksLocked(step)
}

// blocksLocked reports whether an incomplete step stops Next.
func (i *Instance) blocksLocked(step int) bool {
	if i.def.Gating == GatingAdvisory {
		return false
	}
	s, ok := i.def.Step(step)
	return ok && !s.Optional
}

func (i *Instance) completedStepsLocked() []int {
	var steps []int
	for _, s := range i.def.Steps {
		if i.isStepCompletedLocked(s.ID) {
			steps = append(steps, s.ID)
		}
	}
	sort.Ints(steps)
	return steps
}

func (i *Instance) allSatisfiedLocked() bool {
	for _, s := range i.def.Steps {
		if !i.isStepSatisfiedLocked(s.ID) {
			return false
		}
	}
	return true
}

// wouldFinishLocked reports whether saving step non-draft completes the wizard.
func (i *Instance) wouldFinishLocked(step int) bool {
	for _, s := range i.def.Steps {
		if !(i.saved[s.ID] || s.ID == step) {
			return false
		}
		if !i.isCompleteLocked(s.ID) && i.blocksLocked(s.ID) {
			return false
		}
	}
	return true
}
