package workflow

import "github.com/minerva/erp/internal/domain"

// StepView is the computed state of one step.
type StepView struct {
	StepDefinition
	Status    StepStatus `json:"status"`
	Completed bool       `json:"completed"`
	Saved     bool       `json:"saved"`
	Version   int64      `json:"version"`
	Missing   []string   `json:"missing,omitempty"`
}

// View is an immutable picture of an instance.
type View struct {
	OSType         string               `json:"os_type"`
	Name           string               `json:"name"`
	OSID           string               `json:"os_id,omitempty"`
	Codigo         string               `json:"codigo,omitempty"`
	Status         string               `json:"status,omitempty"`
	Phase          domain.WorkflowPhase `json:"phase"`
	CurrentStep    int                  `json:"current_step"`
	LastActiveStep int                  `json:"last_active_step"`
	Historical     bool                 `json:"historical"`
	Finished       bool                 `json:"finished"`
	Progress       int                  `json:"progress"`
	Completed      []int                `json:"completed_steps"`
	Steps          []StepView           `json:"steps"`
	CurrentData    Payload              `json:"current_data"`
}

// Snapshot computes the current view. Completion is re-evaluated on every call.
func (i *Instance) Snapshot() View {
	i.mu.Lock()
	defer i.mu.Unlock()

	completed := i.completedStepsLocked()
	if completed == nil {
		completed = []int{}
	}
	satisfied := 0
	for _, s := range i.def.Steps {
		if i.isStepSatisfiedLocked(s.ID) {
			satisfied++
		}
	}

	view := View{
		OSType:         i.def.OSType,
		Name:           i.def.Name,
		OSID:           i.record.ID,
		Codigo:         i.record.Codigo,
		Status:         i.record.Status,
		Phase:          i.phase,
		CurrentStep:    i.current,
		LastActiveStep: i.lastActive,
		Historical:     i.historical,
		Finished:       satisfied == len(i.def.Steps),
		Progress:       satisfied * 100 / len(i.def.Steps),
		Completed:      completed,
		Steps:          make([]StepView, 0, len(i.def.Steps)),
		CurrentData:    i.data.Get(i.current, Payload{}),
	}

	for _, s := range i.def.Steps {
		payload := i.data.Get(s.ID, Payload{})
		done := i.isStepCompletedLocked(s.ID)

		status := StatusPending
		switch {
		case done || i.isStepSatisfiedLocked(s.ID):
			status = StatusDone
		case s.ID == i.current:
			status = StatusActive
		case s.ID > i.lastActive && s.InitialStatus != StatusDone && s.InitialStatus != "":
			status = s.InitialStatus
		}

		view.Steps = append(view.Steps, StepView{
			StepDefinition: s,
			Status:         status,
			Completed:      done,
			Saved:          i.saved[s.ID],
			Version:        i.versions[s.ID],
			Missing:        i.eval.Missing(s.ID, payload),
		})
	}
	return view
}
