package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// TaskStatus represents the lifecycle status of a processing task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// ProcessTask tracks one spreadsheet upload's end-to-end processing run.
// Status moves PENDING→PROCESSING→terminal only; CANCELLED is reachable from
// PENDING and PROCESSING. Counters satisfy
// processed = succeeded + failed + manual ≤ total at every committed state.
type ProcessTask struct {
	shared.CompanyAggregateRoot
	FileName      string     `json:"file_name"`
	FileSize      int64      `json:"file_size"`
	ContentHash   string     `json:"content_hash"`
	Channel       string     `json:"channel"`
	Status        TaskStatus `json:"status"`
	TotalRows     int        `json:"total_rows"`
	ProcessedRows int        `json:"processed_rows"`
	SucceededRows int        `json:"succeeded_rows"`
	FailedRows    int        `json:"failed_rows"`
	ManualRows    int        `json:"manual_rows"`
	// ConfidenceSum accumulates per-row confidence so the average survives
	// atomic counter updates
	ConfidenceSum float64    `json:"confidence_sum"`
	FailureReason string     `json:"failure_reason,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewProcessTask creates a new task in PENDING state
func NewProcessTask(companyID, ownerID uuid.UUID, fileName string, fileSize int64, contentHash, channel string) (*ProcessTask, error) {
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size cannot be negative")
	}
	if contentHash == "" {
		return nil, shared.NewDomainError("INVALID_CONTENT_HASH", "Content hash cannot be empty")
	}

	return &ProcessTask{
		CompanyAggregateRoot: shared.NewCompanyAggregateRootWithCreator(companyID, ownerID),
		FileName:             fileName,
		FileSize:             fileSize,
		ContentHash:          contentHash,
		Channel:              channel,
		Status:               TaskStatusPending,
	}, nil
}

// StartProcessing marks the task as started with the discovered row count
func (t *ProcessTask) StartProcessing(totalRows int) error {
	if t.Status != TaskStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing from state: %s", t.Status))
	}
	if totalRows < 0 {
		return shared.NewDomainError("INVALID_TOTAL_ROWS", "Total rows cannot be negative")
	}

	t.Status = TaskStatusProcessing
	t.TotalRows = totalRows
	now := time.Now()
	t.StartedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// Complete marks the task as completed. Legal only from PROCESSING with all
// rows accounted for.
func (t *ProcessTask) Complete() error {
	if t.Status != TaskStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", t.Status))
	}
	if t.ProcessedRows != t.TotalRows {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete with %d of %d rows processed", t.ProcessedRows, t.TotalRows))
	}

	t.Status = TaskStatusCompleted
	now := time.Now()
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// Fail marks the task as failed after a non-recoverable system error,
// preserving the counters reached so far
func (t *ProcessTask) Fail(reason string) error {
	if t.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail from terminal state: %s", t.Status))
	}

	t.Status = TaskStatusFailed
	t.FailureReason = reason
	now := time.Now()
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// Cancel marks the task as cancelled. Legal only from PENDING/PROCESSING.
func (t *ProcessTask) Cancel() error {
	if t.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel from terminal state: %s", t.Status))
	}

	t.Status = TaskStatusCancelled
	now := time.Now()
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// AverageConfidence returns the mean per-row confidence of processed rows
func (t *ProcessTask) AverageConfidence() float64 {
	if t.ProcessedRows == 0 {
		return 0
	}
	return t.ConfidenceSum / float64(t.ProcessedRows)
}

// CountersConsistent verifies the task counter invariant
func (t *ProcessTask) CountersConsistent() bool {
	return t.ProcessedRows == t.SucceededRows+t.FailedRows+t.ManualRows &&
		t.ProcessedRows <= t.TotalRows
}

// Progress is a read-only snapshot of a task's committed counters
type Progress struct {
	TaskID        uuid.UUID  `json:"task_id"`
	Status        TaskStatus `json:"status"`
	TotalRows     int        `json:"total_rows"`
	ProcessedRows int        `json:"processed_rows"`
	SucceededRows int        `json:"succeeded_rows"`
	FailedRows    int        `json:"failed_rows"`
	ManualRows    int        `json:"manual_rows"`
	AvgConfidence float64    `json:"avg_confidence"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Snapshot builds a progress snapshot from the task's committed counters
func (t *ProcessTask) Snapshot() Progress {
	return Progress{
		TaskID:        t.ID,
		Status:        t.Status,
		TotalRows:     t.TotalRows,
		ProcessedRows: t.ProcessedRows,
		SucceededRows: t.SucceededRows,
		FailedRows:    t.FailedRows,
		ManualRows:    t.ManualRows,
		AvgConfidence: t.AverageConfidence(),
		StartedAt:     t.StartedAt,
		CompletedAt:   t.CompletedAt,
	}
}
