package workflow

import "context"

// Record holds the server-computed fields of an OS.
type Record struct {
	ID             string  `json:"id"`
	Codigo         string  `json:"codigo"`
	OSType         string  `json:"os_type"`
	Status         string  `json:"status"`
	CurrentStep    int     `json:"current_step"`
	LastActiveStep int     `json:"last_active_step"`
	CreatedByID    string  `json:"created_by_id,omitempty"`
	Fields         Payload `json:"fields,omitempty"`
}

// StepRecord is a persisted step payload.
type StepRecord struct {
	Step    int     `json:"step"`
	Payload Payload `json:"payload"`
	Draft   bool    `json:"draft"`
	Version int64   `json:"version"`
}

// StepWrite is a single step write. ExpectedVersion is the version the
// instance last saw; zero means the step was never persisted.
type StepWrite struct {
	OSID            string
	Step            int
	Payload         Payload
	Draft           bool
	ExpectedVersion int64
	CurrentStep     int
	LastActiveStep  int
	Status          string
}

// Persister stores OS records and their steps.
type Persister interface {
	// CreateRecord mints the OS id and codigo.
	CreateRecord(ctx context.Context, osType string, seed Payload, createdBy string) (Record, error)
	// SaveStep writes one step and returns its new version. A stale
	// ExpectedVersion fails with a conflict and writes nothing.
	SaveStep(ctx context.Context, w StepWrite) (int64, error)
	LoadRecord(ctx context.Context, osID string) (Record, error)
	LoadSteps(ctx context.Context, osID string) ([]StepRecord, error)
}
