package dto

import "time"

// ProgressEvent is emitted to the caller-supplied callback after each
// migration step.
type ProgressEvent struct {
	OperationID string    `json:"operation_id"`
	CurrentStep int       `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
	StepName    string    `json:"step_name"`
	Progress    int       `json:"progress"` // 0-100
	Message     string    `json:"message"`
	StartTime   time.Time `json:"start_time"`
}

// MigrationResult is returned by both migration directions. A mid-flight
// failure never surfaces as a returned error; it lands in Errors with
// Success false after the best-effort rollback.
type MigrationResult struct {
	Success            bool      `json:"success"`
	MigratedItemsCount int       `json:"migrated_items_count"`
	CreatedVariationID string    `json:"created_variation_id,omitempty"`
	Errors             []string  `json:"errors"`
	RollbackBackupID   string    `json:"rollback_backup_id,omitempty"`
	OperationID        string    `json:"operation_id"`
	Timestamp          time.Time `json:"timestamp"`
}

// PrerequisiteResult is the outcome of the pure pre-migration check.
type PrerequisiteResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
