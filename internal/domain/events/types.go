package events

// EventType defines the type of event in the system
type EventType string

const (
	// Workflow Events
	OSCreated         EventType = "workflow.os_created"
	StepSaved         EventType = "workflow.step_saved"
	StepDraftSaved    EventType = "workflow.draft_saved"
	WorkflowCompleted EventType = "workflow.completed"

	// Session Events
	SessionStarted EventType = "wizard.session_started"
	SessionClosed  EventType = "wizard.session_closed"

	// Record Events
	RecordCreated EventType = "record.created"
	RecordUpdated EventType = "record.updated"
	RecordDeleted EventType = "record.deleted"

	// Finance Events
	LancamentoClassified EventType = "financeiro.lancamento_classificado"

	// System Events
	SystemStartup EventType = "system.startup"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// StepSavedPayload accompanies StepSaved and StepDraftSaved
type StepSavedPayload struct {
	OSID    string `json:"os_id"`
	OSType  string `json:"os_type"`
	Step    int    `json:"step"`
	Draft   bool   `json:"draft"`
	Version int64  `json:"version"`
	UserID  string `json:"user_id,omitempty"`
}

// OSCreatedPayload accompanies OSCreated
type OSCreatedPayload struct {
	OSID   string `json:"os_id"`
	Codigo string `json:"codigo"`
	OSType string `json:"os_type"`
	UserID string `json:"user_id,omitempty"`
}

// RecordPayload accompanies the generic record events
type RecordPayload struct {
	Table    string                 `json:"table"`
	RecordID string                 `json:"record_id"`
	Data     map[string]interface{} `json:"data,omitempty"`
}
