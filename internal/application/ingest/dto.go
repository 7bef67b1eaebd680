package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/supplyhub/backend/internal/domain/ingest"
)

// SubmitTaskRequest is the input for a spreadsheet upload
type SubmitTaskRequest struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	FileName  string
	Data      []byte
	// Channel is the sales channel code for the created orders; defaults to
	// the spreadsheet channel when empty
	Channel string
}

// TaskResponse is the API representation of a processing task
type TaskResponse struct {
	ID            uuid.UUID  `json:"id"`
	FileName      string     `json:"file_name"`
	FileSize      int64      `json:"file_size"`
	Channel       string     `json:"channel"`
	Status        string     `json:"status"`
	TotalRows     int        `json:"total_rows"`
	ProcessedRows int        `json:"processed_rows"`
	SucceededRows int        `json:"succeeded_rows"`
	FailedRows    int        `json:"failed_rows"`
	ManualRows    int        `json:"manual_rows"`
	AvgConfidence float64    `json:"avg_confidence"`
	FailureReason string     `json:"failure_reason,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToTaskResponse converts a domain task to its API representation
func ToTaskResponse(task *ingest.ProcessTask) *TaskResponse {
	return &TaskResponse{
		ID:            task.ID,
		FileName:      task.FileName,
		FileSize:      task.FileSize,
		Channel:       task.Channel,
		Status:        string(task.Status),
		TotalRows:     task.TotalRows,
		ProcessedRows: task.ProcessedRows,
		SucceededRows: task.SucceededRows,
		FailedRows:    task.FailedRows,
		ManualRows:    task.ManualRows,
		AvgConfidence: task.AverageConfidence(),
		FailureReason: task.FailureReason,
		StartedAt:     task.StartedAt,
		CompletedAt:   task.CompletedAt,
		CreatedAt:     task.CreatedAt,
	}
}

// TaskListResponse is one page of tasks
type TaskListResponse struct {
	Items      []*TaskResponse `json:"items"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

// ListTasksQuery narrows task listings
type ListTasksQuery struct {
	Status    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// RowDetailResponse is the API representation of one processed row
type RowDetailResponse struct {
	ID                uuid.UUID  `json:"id"`
	TaskID            uuid.UUID  `json:"task_id"`
	RowNumber         int        `json:"row_number"`
	RawPayload        string     `json:"raw_payload,omitempty"`
	RecognizedPayload string     `json:"recognized_payload,omitempty"`
	Outcome           string     `json:"outcome"`
	Confidence        float64    `json:"confidence"`
	ErrorCategory     string     `json:"error_category,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	Suggestion        string     `json:"suggestion,omitempty"`
	TopCandidate      string     `json:"top_candidate,omitempty"`
	OrderID           *uuid.UUID `json:"order_id,omitempty"`
	FinalizedAt       *time.Time `json:"finalized_at,omitempty"`
}

// ToRowDetailResponse converts a domain row detail to its API representation
func ToRowDetailResponse(detail *ingest.RowDetail) *RowDetailResponse {
	return &RowDetailResponse{
		ID:                detail.ID,
		TaskID:            detail.TaskID,
		RowNumber:         detail.RowNumber,
		RawPayload:        detail.RawPayload,
		RecognizedPayload: detail.RecognizedPayload,
		Outcome:           string(detail.Outcome),
		Confidence:        detail.Confidence,
		ErrorCategory:     string(detail.ErrorCategory),
		ErrorMessage:      detail.ErrorMessage,
		Suggestion:        detail.Suggestion,
		TopCandidate:      detail.TopCandidate,
		OrderID:           detail.OrderID,
		FinalizedAt:       detail.FinalizedAt,
	}
}

// RowListResponse is one page of row details
type RowListResponse struct {
	Items      []*RowDetailResponse `json:"items"`
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
}

// ListRowsQuery narrows row detail listings
type ListRowsQuery struct {
	Outcome  string
	Page     int
	PageSize int
}

// ErrorOrderResponse is the API representation of an error ledger record
type ErrorOrderResponse struct {
	ID         uuid.UUID  `json:"id"`
	TaskID     uuid.UUID  `json:"task_id"`
	RowNumber  int        `json:"row_number"`
	RawPayload string     `json:"raw_payload,omitempty"`
	Category   string     `json:"category"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
	Status     string     `json:"status"`
	HandledBy  *uuid.UUID `json:"handled_by,omitempty"`
	HandledAt  *time.Time `json:"handled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToErrorOrderResponse converts a domain error record to its API representation
func ToErrorOrderResponse(e *ingest.ErrorOrder) *ErrorOrderResponse {
	return &ErrorOrderResponse{
		ID:         e.ID,
		TaskID:     e.TaskID,
		RowNumber:  e.RowNumber,
		RawPayload: e.RawPayload,
		Category:   string(e.Category),
		Message:    e.Message,
		Suggestion: e.Suggestion,
		Status:     string(e.Status),
		HandledBy:  e.HandledBy,
		HandledAt:  e.HandledAt,
		CreatedAt:  e.CreatedAt,
	}
}

// ErrorListResponse is one page of error ledger records
type ErrorListResponse struct {
	Items      []*ErrorOrderResponse `json:"items"`
	TotalCount int64                 `json:"total_count"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
}

// ListErrorsQuery narrows error ledger listings
type ListErrorsQuery struct {
	TaskID    *uuid.UUID
	Category  string
	Status    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
