package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// RowOutcome is the terminal result of one row's processing
type RowOutcome string

const (
	RowOutcomePending RowOutcome = "pending"
	RowOutcomeSuccess RowOutcome = "success"
	RowOutcomeFailed  RowOutcome = "failed"
	RowOutcomeManual  RowOutcome = "manual_process"
	RowOutcomeSkipped RowOutcome = "skipped"
)

// IsTerminal returns true once the row has reached its final outcome
func (o RowOutcome) IsTerminal() bool {
	return o != RowOutcomePending
}

// RowDetail is the per-row audit record owned by a ProcessTask. It is
// created when the row is read and finalized exactly once; after the
// terminal outcome is recorded the detail is immutable.
type RowDetail struct {
	shared.BaseEntity
	TaskID    uuid.UUID `json:"task_id"`
	CompanyID uuid.UUID `json:"company_id"`
	RowNumber int       `json:"row_number"`
	// RawPayload is the row exactly as read, serialized header→cell
	RawPayload string `json:"raw_payload"`
	// RecognizedPayload is the typed canonical field extraction, serialized
	RecognizedPayload string        `json:"recognized_payload,omitempty"`
	Outcome           RowOutcome    `json:"outcome"`
	Confidence        float64       `json:"confidence"`
	ErrorCategory     ErrorCategory `json:"error_category,omitempty"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	Suggestion        string        `json:"suggestion,omitempty"`
	// TopCandidate keeps the best rejected match for operator review,
	// serialized as JSON
	TopCandidate string     `json:"top_candidate,omitempty"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	FinalizedAt  *time.Time `json:"finalized_at,omitempty"`
}

// NewRowDetail creates a pending row detail for a freshly read row
func NewRowDetail(taskID, companyID uuid.UUID, rowNumber int, rawPayload string) (*RowDetail, error) {
	if rowNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_ROW_NUMBER", "Row number must be positive")
	}
	return &RowDetail{
		BaseEntity: shared.NewBaseEntity(),
		TaskID:     taskID,
		CompanyID:  companyID,
		RowNumber:  rowNumber,
		RawPayload: rawPayload,
		Outcome:    RowOutcomePending,
	}, nil
}

// FinalizeSuccess records the terminal SUCCESS outcome with the created order
func (d *RowDetail) FinalizeSuccess(orderID uuid.UUID, confidence float64) error {
	if err := d.ensurePending(); err != nil {
		return err
	}
	d.Outcome = RowOutcomeSuccess
	d.Confidence = confidence
	d.OrderID = &orderID
	d.stamp()
	return nil
}

// FinalizeManual records the terminal MANUAL_PROCESS outcome
func (d *RowDetail) FinalizeManual(category ErrorCategory, message, suggestion string, confidence float64, topCandidate string) error {
	if err := d.ensurePending(); err != nil {
		return err
	}
	d.Outcome = RowOutcomeManual
	d.ErrorCategory = category
	d.ErrorMessage = message
	d.Suggestion = suggestion
	d.Confidence = confidence
	d.TopCandidate = topCandidate
	d.stamp()
	return nil
}

// FinalizeFailed records the terminal FAILED outcome
func (d *RowDetail) FinalizeFailed(category ErrorCategory, message, suggestion string) error {
	if err := d.ensurePending(); err != nil {
		return err
	}
	d.Outcome = RowOutcomeFailed
	d.ErrorCategory = category
	d.ErrorMessage = message
	d.Suggestion = suggestion
	d.stamp()
	return nil
}

// FinalizeSkipped records the terminal SKIPPED outcome (empty rows, rows
// after cancellation)
func (d *RowDetail) FinalizeSkipped(message string) error {
	if err := d.ensurePending(); err != nil {
		return err
	}
	d.Outcome = RowOutcomeSkipped
	d.ErrorMessage = message
	d.stamp()
	return nil
}

// SetRecognizedPayload attaches the typed extraction. Allowed only before
// the terminal outcome is recorded.
func (d *RowDetail) SetRecognizedPayload(payload string) error {
	if err := d.ensurePending(); err != nil {
		return err
	}
	d.RecognizedPayload = payload
	return nil
}

func (d *RowDetail) ensurePending() error {
	if d.Outcome.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Row %d already finalized with outcome %s", d.RowNumber, d.Outcome))
	}
	return nil
}

func (d *RowDetail) stamp() {
	now := time.Now()
	d.FinalizedAt = &now
	d.UpdatedAt = now
}
