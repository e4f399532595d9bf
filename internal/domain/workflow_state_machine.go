package domain

import (
	"fmt"
	"sort"
)

// WorkflowPhase is the lifecycle phase of a wizard instance, orthogonal to
// the step it is on.
type WorkflowPhase string

const (
	// PhaseDraft means no backing OS record exists yet (lazy creation pending)
	PhaseDraft WorkflowPhase = "Draft"
	// PhaseActive means the OS record exists and steps are being filled
	PhaseActive WorkflowPhase = "Active"
	// PhaseCompleted means every step is completed
	PhaseCompleted WorkflowPhase = "Completed"
)

// WorkflowTransition represents an action that can change the lifecycle phase
type WorkflowTransition string

const (
	// TransitionCreate mints the backing OS record
	TransitionCreate WorkflowTransition = "Create"
	// TransitionComplete marks every step as completed
	TransitionComplete WorkflowTransition = "Complete"
	// TransitionReopen returns a completed instance to active after an edit
	// invalidated one of its steps
	TransitionReopen WorkflowTransition = "Reopen"
)

// WorkflowStateMachine enforces valid lifecycle transitions for wizard instances.
// Invalid transitions return an error.
type WorkflowStateMachine struct {
	// transitions maps (current phase, transition) -> next phase
	transitions map[phaseTransitionKey]WorkflowPhase
}

type phaseTransitionKey struct {
	phase      WorkflowPhase
	transition WorkflowTransition
}

// NewWorkflowStateMachine creates a state machine with the wizard lifecycle rules.
// State diagram:
//
//	[Draft] ──Create──► [Active] ──Complete──► [Completed]
//	                       ▲                        │
//	                       └─────────Reopen─────────┘
//
// Completing a one-step wizard on its first save goes Draft → Active → Completed.
func NewWorkflowStateMachine() *WorkflowStateMachine {
	sm := &WorkflowStateMachine{
		transitions: make(map[phaseTransitionKey]WorkflowPhase),
	}

	sm.addTransition(PhaseDraft, TransitionCreate, PhaseActive)
	sm.addTransition(PhaseActive, TransitionComplete, PhaseCompleted)
	sm.addTransition(PhaseCompleted, TransitionReopen, PhaseActive)

	return sm
}

func (sm *WorkflowStateMachine) addTransition(from WorkflowPhase, via WorkflowTransition, to WorkflowPhase) {
	key := phaseTransitionKey{phase: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to move from the current phase using the given action.
// Returns the new phase or an error if the transition is invalid.
func (sm *WorkflowStateMachine) Transition(current WorkflowPhase, action WorkflowTransition) (WorkflowPhase, error) {
	key := phaseTransitionKey{phase: current, transition: action}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid phase transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *WorkflowStateMachine) CanTransition(current WorkflowPhase, action WorkflowTransition) bool {
	key := phaseTransitionKey{phase: current, transition: action}
	_, ok := sm.transitions[key]
	return ok
}

// ValidTransitions returns all valid transitions from the given phase, sorted by name.
func (sm *WorkflowStateMachine) ValidTransitions(phase WorkflowPhase) []WorkflowTransition {
	var result []WorkflowTransition
	for key := range sm.transitions {
		if key.phase == phase {
			result = append(result, key.transition)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
