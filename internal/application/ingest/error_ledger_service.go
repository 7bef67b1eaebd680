package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// ErrorLedgerService exposes the error ledger to operators: listing what
// went wrong and resolving records after manual handling
type ErrorLedgerService struct {
	errors ingest.ErrorOrderRepository
	logger *zap.Logger
}

// NewErrorLedgerService creates the error ledger service
func NewErrorLedgerService(errors ingest.ErrorOrderRepository, logger *zap.Logger) *ErrorLedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLedgerService{
		errors: errors,
		logger: logger.Named("error_ledger"),
	}
}

// List returns a page of error records matching the query
func (s *ErrorLedgerService) List(ctx context.Context, companyID uuid.UUID, query ListErrorsQuery) (*ErrorListResponse, error) {
	var filter ingest.ErrorFilter
	filter.TaskID = query.TaskID
	if query.Category != "" {
		category := ingest.ErrorCategory(query.Category)
		if !category.IsValid() {
			return nil, shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Unknown error category %q", query.Category))
		}
		filter.Category = &category
	}
	if query.Status != "" {
		status := ingest.ErrorStatus(query.Status)
		filter.Status = &status
	}
	filter.SortBy = query.SortBy
	filter.SortOrder = query.SortOrder

	result, err := s.errors.FindAll(ctx, companyID, filter, query.Page, query.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*ErrorOrderResponse, len(result.Items))
	for i, record := range result.Items {
		items[i] = ToErrorOrderResponse(record)
	}
	return &ErrorListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	}, nil
}

// Get returns one error record by id
func (s *ErrorLedgerService) Get(ctx context.Context, companyID, errorID uuid.UUID) (*ErrorOrderResponse, error) {
	record, err := s.errors.FindByID(ctx, companyID, errorID)
	if err != nil {
		return nil, err
	}
	return ToErrorOrderResponse(record), nil
}

// MarkProcessed resolves a pending record as handled by the operator
func (s *ErrorLedgerService) MarkProcessed(ctx context.Context, companyID, errorID, operatorID uuid.UUID) (*ErrorOrderResponse, error) {
	return s.resolve(ctx, companyID, errorID, operatorID, (*ingest.ErrorOrder).MarkProcessed)
}

// MarkIgnored resolves a pending record as deliberately ignored
func (s *ErrorLedgerService) MarkIgnored(ctx context.Context, companyID, errorID, operatorID uuid.UUID) (*ErrorOrderResponse, error) {
	return s.resolve(ctx, companyID, errorID, operatorID, (*ingest.ErrorOrder).MarkIgnored)
}

func (s *ErrorLedgerService) resolve(ctx context.Context, companyID, errorID, operatorID uuid.UUID, transition func(*ingest.ErrorOrder, uuid.UUID) error) (*ErrorOrderResponse, error) {
	record, err := s.errors.FindByID(ctx, companyID, errorID)
	if err != nil {
		return nil, err
	}
	if err := transition(record, operatorID); err != nil {
		return nil, err
	}
	if err := s.errors.Save(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("error record resolved",
		zap.String("error_id", errorID.String()),
		zap.String("status", string(record.Status)),
		zap.String("operator_id", operatorID.String()))
	return ToErrorOrderResponse(record), nil
}
