package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CounterDelta is one row outcome's contribution to the task counters.
// Exactly one of the outcome fields is 1; repositories apply the delta as a
// single atomic increment so parallel workers never lose updates.
type CounterDelta struct {
	Succeeded  int
	Failed     int
	Manual     int
	Confidence float64
}

// TaskFilter narrows task listings
type TaskFilter struct {
	Status        *TaskStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// SortBy and SortOrder are validated against a whitelist by the
	// repository; invalid values fall back to created_at DESC
	SortBy    string
	SortOrder string
}

// TaskListResult is one page of tasks
type TaskListResult struct {
	Items      []*ProcessTask
	TotalCount int64
	Page       int
	PageSize   int
}

// TaskRepository persists ProcessTask aggregates
type TaskRepository interface {
	Save(ctx context.Context, task *ProcessTask) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*ProcessTask, error)
	// FindActiveByHash finds a PENDING or PROCESSING task with the given
	// content hash for the same company (resubmission guard)
	FindActiveByHash(ctx context.Context, companyID uuid.UUID, contentHash string) (*ProcessTask, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter TaskFilter, page, pageSize int) (*TaskListResult, error)
	// IncrementCounters applies one row's outcome atomically and returns the
	// post-increment snapshot, so the caller that lands the final row can
	// complete the task
	IncrementCounters(ctx context.Context, taskID uuid.UUID, delta CounterDelta) (*Progress, error)
}

// RowFilter narrows row detail listings
type RowFilter struct {
	Outcome *RowOutcome
}

// RowListResult is one page of row details
type RowListResult struct {
	Items      []*RowDetail
	TotalCount int64
	Page       int
	PageSize   int
}

// RowDetailRepository persists per-row audit records
type RowDetailRepository interface {
	Save(ctx context.Context, detail *RowDetail) error
	FindByTaskAndRow(ctx context.Context, taskID uuid.UUID, rowNumber int) (*RowDetail, error)
	FindByTask(ctx context.Context, taskID uuid.UUID, filter RowFilter, page, pageSize int) (*RowListResult, error)
}

// ErrorFilter narrows error ledger listings
type ErrorFilter struct {
	TaskID   *uuid.UUID
	Category *ErrorCategory
	Status   *ErrorStatus

	// see TaskFilter
	SortBy    string
	SortOrder string
}

// ErrorListResult is one page of error records
type ErrorListResult struct {
	Items      []*ErrorOrder
	TotalCount int64
	Page       int
	PageSize   int
}

// ErrorOrderRepository persists the error ledger
type ErrorOrderRepository interface {
	// Upsert records an error idempotently per (taskID, rowNumber): a second
	// call overwrites the existing record instead of duplicating it
	Upsert(ctx context.Context, errorOrder *ErrorOrder) error
	Save(ctx context.Context, errorOrder *ErrorOrder) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*ErrorOrder, error)
	FindByTaskAndRow(ctx context.Context, taskID uuid.UUID, rowNumber int) (*ErrorOrder, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter ErrorFilter, page, pageSize int) (*ErrorListResult, error)
}
