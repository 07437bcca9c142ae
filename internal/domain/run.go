package domain

import "time"

// RunStatus represents the state of an ingestion run.
// A run moves Idle → Running → one of {Completed, BudgetExceeded, Failed}.
// BudgetExceeded is a normal terminal state, not a failure: fingerprints
// committed before the cutoff remain valid.
type RunStatus string

const (
	RunStatusIdle           RunStatus = "idle"
	RunStatusRunning        RunStatus = "running"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusBudgetExceeded RunStatus = "budget_exceeded"
	RunStatusFailed         RunStatus = "failed"
)

// Terminal reports whether the status is one of the terminal states.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusBudgetExceeded, RunStatusFailed:
		return true
	}
	return false
}

// IngestRun represents one ingestion run and its progress counters.
type IngestRun struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	Channel        string     `gorm:"type:text;not null;index" json:"channel"`
	Status         RunStatus  `gorm:"type:text;default:idle" json:"status"`
	ProcessedItems int        `gorm:"default:0" json:"processed_items"`
	SkippedItems   int        `gorm:"default:0" json:"skipped_items"`
	FailedItems    int        `gorm:"default:0" json:"failed_items"`
	InsertedFrames int        `gorm:"default:0" json:"inserted_frames"`
	ConsumedBytes  int64      `gorm:"default:0" json:"consumed_bytes"`
	ByteBudget     int64      `gorm:"default:0" json:"byte_budget"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorLog       string     `json:"error_log,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for IngestRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (IngestRun) TableName() string {
	return "ingest_runs"
}
