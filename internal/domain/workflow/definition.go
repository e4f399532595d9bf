package workflow

import (
	"fmt"
	"sort"
	"sync"
)

// StepStatus is the display status of a step
type StepStatus string

const (
	StatusPending StepStatus = "pending"
	StatusActive  StepStatus = "active"
	StatusDone    StepStatus = "done"
)

// GatingMode controls whether an incomplete step blocks Next
type GatingMode string

const (
	GatingBlock    GatingMode = "block"
	GatingAdvisory GatingMode = "advisory"
)

// MissingRulePolicy decides how a step without a completion rule evaluates
type MissingRulePolicy string

const (
	MissingRuleComplete   MissingRulePolicy = "complete"
	MissingRuleIncomplete MissingRulePolicy = "incomplete"
)

// DraftStep is the pseudo-step preceding step 1 while no OS record exists.
// It is completed once the instance has a backing id.
const DraftStep = 0

// StepDefinition describes one wizard step.
type StepDefinition struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	ShortLabel      string     `json:"short_label"`
	ResponsibleRole string     `json:"responsible_role"`
	InitialStatus   StepStatus `json:"initial_status,omitempty"`
	Optional        bool       `json:"optional,omitempty"`
	Rule            string     `json:"rule,omitempty"`
	RequiredFields  []string   `json:"required_fields,omitempty"`
}

// Definition is the static description of one OS wizard.
type Definition struct {
	OSType           string            `json:"os_type"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Gating           GatingMode        `json:"gating"`
	LazyCreate       bool              `json:"lazy_create"`
	RefreshAfterSave bool              `json:"refresh_after_save"`
	MissingRule      MissingRulePolicy `json:"missing_rule,omitempty"`
	Steps            []StepDefinition  `json:"steps"`
}

// Validate checks structural constraints and fills defaults.
func (d *Definition) Validate() error {
	if d.OSType == "" {
		return fmt.Errorf("workflow definition without os_type")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("workflow %s has no steps", d.OSType)
	}
	for i, step := range d.Steps {
		if step.ID != i+1 {
			return fmt.Errorf("workflow %s: step ids must be contiguous from 1 (position %d has id %d)", d.OSType, i+1, step.ID)
		}
		if step.Title == "" {
			return fmt.Errorf("workflow %s: step %d has no title", d.OSType, step.ID)
		}
		switch step.InitialStatus {
		case "":
			d.Steps[i].InitialStatus = StatusPending
		case StatusPending, StatusActive, StatusDone:
		default:
			return fmt.Errorf("workflow %s: step %d has unknown initial status %q", d.OSType, step.ID, step.InitialStatus)
		}
	}

	switch d.Gating {
	case "":
		d.Gating = GatingBlock
	case GatingBlock, GatingAdvisory:
	default:
		return fmt.Errorf("workflow %s: unknown gating mode %q", d.OSType, d.Gating)
	}

	switch d.MissingRule {
	case "":
		d.MissingRule = MissingRuleComplete
	case MissingRuleComplete, MissingRuleIncomplete:
	default:
		return fmt.Errorf("workflow %s: unknown missing_rule %q", d.OSType, d.MissingRule)
	}
	return nil
}

// Step returns the definition of a step by id.
func (d *Definition) Step(id int) (StepDefinition, bool) {
	if id < 1 || id > len(d.Steps) {
		return StepDefinition{}, false
	}
	return d.Steps[id-1], true
}

// HasStep reports whether id is a valid step of this workflow
func (d *Definition) HasStep(id int) bool {
	return id >= 1 && id <= len(d.Steps)
}

// LastStep is the id of the final step
func (d *Definition) LastStep() int {
	return len(d.Steps)
}

// StepList returns a copy of the ordered steps.
func (d *Definition) StepList() []StepDefinition {
	out := make([]StepDefinition, len(d.Steps))
	copy(out, d.Steps)
	return out
}

// Registry holds the workflow definitions known to the server, keyed by OS type.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register validates and adds a definition. Duplicates are rejected.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("nil workflow definition")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.OSType]; exists {
		return fmt.Errorf("workflow %s already registered", def.OSType)
	}
	r.defs[def.OSType] = def
	return nil
}

func (r *Registry) Get(osType string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[osType]
	return def, ok
}

// List returns all definitions ordered by OS type.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OSType < out[j].OSType })
	return out
}
