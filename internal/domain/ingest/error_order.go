package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// ErrorCategory is the failure taxonomy of the ingestion pipeline
type ErrorCategory string

const (
	// ErrorCategoryValidation marks rows that fail business rules
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	// ErrorCategoryProductMatch marks rows with no acceptable product match
	ErrorCategoryProductMatch ErrorCategory = "PRODUCT_MATCH"
	// ErrorCategoryCustomerMatch marks rows with no acceptable customer match
	ErrorCategoryCustomerMatch ErrorCategory = "CUSTOMER_MATCH"
	// ErrorCategoryLowConfidence marks rows whose field recognition scored
	// below the minimum mapping confidence
	ErrorCategoryLowConfidence ErrorCategory = "LOW_CONFIDENCE"
	// ErrorCategorySystem marks infrastructure failures (catalog timeout,
	// number generator or classifier unavailable)
	ErrorCategorySystem ErrorCategory = "SYSTEM"
	// ErrorCategoryDuplicate marks task-level resubmission of an identical file
	ErrorCategoryDuplicate ErrorCategory = "DUPLICATE"
)

// IsValid checks if the category is part of the taxonomy
func (c ErrorCategory) IsValid() bool {
	switch c {
	case ErrorCategoryValidation, ErrorCategoryProductMatch, ErrorCategoryCustomerMatch,
		ErrorCategoryLowConfidence, ErrorCategorySystem, ErrorCategoryDuplicate:
		return true
	}
	return false
}

// ErrorStatus is the remediation state of an error record
type ErrorStatus string

const (
	ErrorStatusPending   ErrorStatus = "pending"
	ErrorStatusProcessed ErrorStatus = "processed"
	ErrorStatusIgnored   ErrorStatus = "ignored"
)

// ErrorOrder is the durable ledger record for a row that failed or needs
// manual handling. It references its RowDetail weakly through
// (task id, row number); status changes only through explicit operator
// action, recorded with the operator id and timestamp.
type ErrorOrder struct {
	shared.BaseEntity
	CompanyID  uuid.UUID     `json:"company_id"`
	TaskID     uuid.UUID     `json:"task_id"`
	RowNumber  int           `json:"row_number"`
	RawPayload string        `json:"raw_payload"`
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
	Status     ErrorStatus   `json:"status"`
	HandledBy  *uuid.UUID    `json:"handled_by,omitempty"`
	HandledAt  *time.Time    `json:"handled_at,omitempty"`
}

// NewErrorOrder creates a pending error record for one row
func NewErrorOrder(companyID, taskID uuid.UUID, rowNumber int, rawPayload string, category ErrorCategory, message, suggestion string) (*ErrorOrder, error) {
	if rowNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_ROW_NUMBER", "Row number must be positive")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Invalid error category: %s", category))
	}
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Error message cannot be empty")
	}

	return &ErrorOrder{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		TaskID:     taskID,
		RowNumber:  rowNumber,
		RawPayload: rawPayload,
		Category:   category,
		Message:    message,
		Suggestion: suggestion,
		Status:     ErrorStatusPending,
	}, nil
}

// MarkProcessed resolves the record as handled. Legal only from PENDING.
func (e *ErrorOrder) MarkProcessed(operatorID uuid.UUID) error {
	return e.resolve(ErrorStatusProcessed, operatorID)
}

// MarkIgnored resolves the record as deliberately ignored. Legal only from PENDING.
func (e *ErrorOrder) MarkIgnored(operatorID uuid.UUID) error {
	return e.resolve(ErrorStatusIgnored, operatorID)
}

func (e *ErrorOrder) resolve(status ErrorStatus, operatorID uuid.UUID) error {
	if e.Status != ErrorStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot resolve error in state %s", e.Status))
	}
	if operatorID == uuid.Nil {
		return shared.NewDomainError("INVALID_OPERATOR", "Operator ID is required")
	}

	e.Status = status
	e.HandledBy = &operatorID
	now := time.Now()
	e.HandledAt = &now
	e.UpdatedAt = now
	return nil
}
