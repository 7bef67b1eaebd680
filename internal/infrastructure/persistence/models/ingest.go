package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// ProcessTaskModel is the persistence model for the ProcessTask aggregate root.
type ProcessTaskModel struct {
	CompanyAggregateModel
	FileName      string            `gorm:"type:varchar(255);not null"`
	FileSize      int64             `gorm:"not null"`
	ContentHash   string            `gorm:"type:varchar(64);not null;index:idx_task_company_hash"`
	Channel       string            `gorm:"type:varchar(2);not null"`
	Status        ingest.TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalRows     int               `gorm:"not null;default:0"`
	ProcessedRows int               `gorm:"not null;default:0"`
	SucceededRows int               `gorm:"not null;default:0"`
	FailedRows    int               `gorm:"not null;default:0"`
	ManualRows    int               `gorm:"not null;default:0"`
	ConfidenceSum float64           `gorm:"not null;default:0"`
	FailureReason string            `gorm:"type:text"`
	StartedAt     *time.Time        `gorm:"index"`
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (ProcessTaskModel) TableName() string {
	return "ingest_tasks"
}

// ToDomain converts the persistence model to a domain ProcessTask entity.
func (m *ProcessTaskModel) ToDomain() *ingest.ProcessTask {
	task := &ingest.ProcessTask{
		FileName:      m.FileName,
		FileSize:      m.FileSize,
		ContentHash:   m.ContentHash,
		Channel:       m.Channel,
		Status:        m.Status,
		TotalRows:     m.TotalRows,
		ProcessedRows: m.ProcessedRows,
		SucceededRows: m.SucceededRows,
		FailedRows:    m.FailedRows,
		ManualRows:    m.ManualRows,
		ConfidenceSum: m.ConfidenceSum,
		FailureReason: m.FailureReason,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
	}
	m.PopulateCompanyAggregateRoot(&task.CompanyAggregateRoot)
	return task
}

// FromDomain populates the persistence model from a domain ProcessTask entity.
func (m *ProcessTaskModel) FromDomain(t *ingest.ProcessTask) {
	m.FromDomainCompanyAggregateRoot(t.CompanyAggregateRoot)
	m.FileName = t.FileName
	m.FileSize = t.FileSize
	m.ContentHash = t.ContentHash
	m.Channel = t.Channel
	m.Status = t.Status
	m.TotalRows = t.TotalRows
	m.ProcessedRows = t.ProcessedRows
	m.SucceededRows = t.SucceededRows
	m.FailedRows = t.FailedRows
	m.ManualRows = t.ManualRows
	m.ConfidenceSum = t.ConfidenceSum
	m.FailureReason = t.FailureReason
	m.StartedAt = t.StartedAt
	m.CompletedAt = t.CompletedAt
}

// ProcessTaskModelFromDomain creates a new persistence model from a domain ProcessTask entity.
func ProcessTaskModelFromDomain(t *ingest.ProcessTask) *ProcessTaskModel {
	m := &ProcessTaskModel{}
	m.FromDomain(t)
	return m
}

// RowDetailModel is the persistence model for the RowDetail entity.
type RowDetailModel struct {
	BaseModel
	TaskID            uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_row_task_number,priority:1"`
	CompanyID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	RowNumber         int                  `gorm:"not null;uniqueIndex:idx_row_task_number,priority:2"`
	RawPayload        string               `gorm:"type:jsonb"`
	RecognizedPayload string               `gorm:"type:jsonb"`
	Outcome           ingest.RowOutcome    `gorm:"type:varchar(20);not null;default:'pending';index"`
	Confidence        float64              `gorm:"not null;default:0"`
	ErrorCategory     ingest.ErrorCategory `gorm:"type:varchar(30)"`
	ErrorMessage      string               `gorm:"type:text"`
	Suggestion        string               `gorm:"type:text"`
	TopCandidate      string               `gorm:"type:jsonb"`
	OrderID           *uuid.UUID           `gorm:"type:uuid;index"`
	FinalizedAt       *time.Time
}

// TableName returns the table name for GORM
func (RowDetailModel) TableName() string {
	return "ingest_row_details"
}

// ToDomain converts the persistence model to a domain RowDetail entity.
func (m *RowDetailModel) ToDomain() *ingest.RowDetail {
	return &ingest.RowDetail{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TaskID:            m.TaskID,
		CompanyID:         m.CompanyID,
		RowNumber:         m.RowNumber,
		RawPayload:        m.RawPayload,
		RecognizedPayload: m.RecognizedPayload,
		Outcome:           m.Outcome,
		Confidence:        m.Confidence,
		ErrorCategory:     m.ErrorCategory,
		ErrorMessage:      m.ErrorMessage,
		Suggestion:        m.Suggestion,
		TopCandidate:      m.TopCandidate,
		OrderID:           m.OrderID,
		FinalizedAt:       m.FinalizedAt,
	}
}

// FromDomain populates the persistence model from a domain RowDetail entity.
func (m *RowDetailModel) FromDomain(d *ingest.RowDetail) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.TaskID = d.TaskID
	m.CompanyID = d.CompanyID
	m.RowNumber = d.RowNumber
	m.RawPayload = d.RawPayload
	m.RecognizedPayload = d.RecognizedPayload
	m.Outcome = d.Outcome
	m.Confidence = d.Confidence
	m.ErrorCategory = d.ErrorCategory
	m.ErrorMessage = d.ErrorMessage
	m.Suggestion = d.Suggestion
	m.TopCandidate = d.TopCandidate
	m.OrderID = d.OrderID
	m.FinalizedAt = d.FinalizedAt
}

// RowDetailModelFromDomain creates a new persistence model from a domain RowDetail entity.
func RowDetailModelFromDomain(d *ingest.RowDetail) *RowDetailModel {
	m := &RowDetailModel{}
	m.FromDomain(d)
	return m
}

// ErrorOrderModel is the persistence model for the ErrorOrder entity.
type ErrorOrderModel struct {
	BaseModel
	CompanyID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	TaskID     uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_error_task_row,priority:1"`
	RowNumber  int                  `gorm:"not null;uniqueIndex:idx_error_task_row,priority:2"`
	RawPayload string               `gorm:"type:jsonb"`
	Category   ingest.ErrorCategory `gorm:"type:varchar(30);not null;index"`
	Message    string               `gorm:"type:text;not null"`
	Suggestion string               `gorm:"type:text"`
	Status     ingest.ErrorStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	HandledBy  *uuid.UUID           `gorm:"type:uuid"`
	HandledAt  *time.Time
}

// TableName returns the table name for GORM
func (ErrorOrderModel) TableName() string {
	return "error_orders"
}

// ToDomain converts the persistence model to a domain ErrorOrder entity.
func (m *ErrorOrderModel) ToDomain() *ingest.ErrorOrder {
	return &ingest.ErrorOrder{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		CompanyID:  m.CompanyID,
		TaskID:     m.TaskID,
		RowNumber:  m.RowNumber,
		RawPayload: m.RawPayload,
		Category:   m.Category,
		Message:    m.Message,
		Suggestion: m.Suggestion,
		Status:     m.Status,
		HandledBy:  m.HandledBy,
		HandledAt:  m.HandledAt,
	}
}

// FromDomain populates the persistence model from a domain ErrorOrder entity.
func (m *ErrorOrderModel) FromDomain(e *ingest.ErrorOrder) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.CompanyID = e.CompanyID
	m.TaskID = e.TaskID
	m.RowNumber = e.RowNumber
	m.RawPayload = e.RawPayload
	m.Category = e.Category
	m.Message = e.Message
	m.Suggestion = e.Suggestion
	m.Status = e.Status
	m.HandledBy = e.HandledBy
	m.HandledAt = e.HandledAt
}

// ErrorOrderModelFromDomain creates a new persistence model from a domain ErrorOrder entity.
func ErrorOrderModelFromDomain(e *ingest.ErrorOrder) *ErrorOrderModel {
	m := &ErrorOrderModel{}
	m.FromDomain(e)
	return m
}
