package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/supplyhub/backend/internal/domain/catalog"
	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/match"
	"github.com/supplyhub/backend/internal/domain/recognize"
	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/domain/trade"
	"github.com/supplyhub/backend/internal/infrastructure/spreadsheet"
)

// rowProcessor drives one row through validation, matching and order
// creation. Every failure mode ends in a finalized RowDetail plus an error
// ledger record; the returned delta is the row's contribution to the task
// counters. It never returns an error: panics and infrastructure failures
// become SYSTEM outcomes so one bad row cannot take a task down.
type rowProcessor struct {
	task       *ingest.ProcessTask
	mapping    *recognize.Mapping
	recognizer *recognize.Recognizer
	products   *match.ProductMatcher
	customers  *match.CustomerMatcher

	productRepo catalog.ProductRepository
	orderRepo   trade.OrderRepository
	rowRepo     ingest.RowDetailRepository
	errorRepo   ingest.ErrorOrderRepository
	numbers     trade.NumberGenerator
	publisher   shared.EventPublisher

	ownerKey      string
	channel       trade.Channel
	minConfidence float64
	logger        *zap.Logger
}

// ProcessRow processes one data row end to end and returns its counter delta
func (p *rowProcessor) ProcessRow(ctx context.Context, headers []string, row spreadsheet.Row) (delta ingest.CounterDelta) {
	detail, err := ingest.NewRowDetail(p.task.ID, p.task.CompanyID, row.Number, encodeRawPayload(headers, row.Cells))
	if err != nil {
		p.logger.Error("row detail creation failed",
			zap.String("task_id", p.task.ID.String()),
			zap.Int("row_number", row.Number),
			zap.Error(err))
		return ingest.CounterDelta{Failed: 1}
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("row processing panicked",
				zap.String("task_id", p.task.ID.String()),
				zap.Int("row_number", row.Number),
				zap.Any("panic", r))
			delta = p.fail(ctx, detail, ingest.ErrorCategorySystem,
				fmt.Sprintf("internal error while processing row %d", row.Number),
				"Contact support if the error persists")
		}
	}()

	// cancellation lands the row as SKIPPED without touching the counters
	if ctx.Err() != nil {
		return p.skip(ctx, detail, "task cancelled before row was processed")
	}

	recognized := p.recognizer.ExtractRow(p.mapping, row.Cells)
	if payload, err := json.Marshal(recognized); err == nil {
		_ = detail.SetRecognizedPayload(string(payload))
	}

	// a shaky column mapping sends the row to manual review before any
	// business rule gets a chance to reject it
	if p.mapping.Confidence < p.minConfidence {
		return p.manual(ctx, detail, ingest.ErrorCategoryLowConfidence,
			fmt.Sprintf("column recognition confidence %.2f is below %.2f", p.mapping.Confidence, p.minConfidence),
			"Review the column mapping and rename ambiguous headers",
			p.mapping.Confidence, "")
	}

	if msg, suggestion, ok := validateRow(recognized); !ok {
		return p.fail(ctx, detail, ingest.ErrorCategoryValidation, msg, suggestion)
	}

	customer, err := p.customers.SmartMatch(ctx, recognized.CustomerCode, recognized.CustomerName, recognized.CustomerPhone)
	if err != nil {
		return p.fail(ctx, detail, ingest.ErrorCategorySystem,
			"customer lookup failed: "+err.Error(), "Retry the task once the database is reachable")
	}
	if customer == nil {
		return p.fail(ctx, detail, ingest.ErrorCategoryCustomerMatch,
			fmt.Sprintf("no customer matches code=%q name=%q phone=%q",
				recognized.CustomerCode, recognized.CustomerName, recognized.CustomerPhone),
			"Create the customer or correct the identifier in the file")
	}
	if !customer.AutoAccept {
		return p.manual(ctx, detail, ingest.ErrorCategoryCustomerMatch,
			fmt.Sprintf("best customer candidate %q scored %.2f, below auto-accept", customer.Name, customer.Confidence),
			"Confirm the suggested customer or correct the row",
			customer.Confidence, encodeCandidate(customer))
	}

	product, err := p.products.SmartMatch(ctx, recognized.SKU, recognized.ProductName)
	if err != nil {
		return p.fail(ctx, detail, ingest.ErrorCategorySystem,
			"product lookup failed: "+err.Error(), "Retry the task once the database is reachable")
	}
	if product == nil {
		return p.fail(ctx, detail, ingest.ErrorCategoryProductMatch,
			fmt.Sprintf("no product matches sku=%q name=%q", recognized.SKU, recognized.ProductName),
			"Create the product or correct the SKU in the file")
	}
	if !product.AutoAccept {
		return p.manual(ctx, detail, ingest.ErrorCategoryProductMatch,
			fmt.Sprintf("best product candidate %q scored %.2f, below auto-accept", product.Name, product.Confidence),
			"Confirm the suggested product or correct the row",
			product.Confidence, encodeCandidate(product))
	}

	unitPrice, err := p.resolveUnitPrice(ctx, recognized, product.EntityID)
	if err != nil {
		return p.fail(ctx, detail, ingest.ErrorCategorySystem,
			"product price lookup failed: "+err.Error(), "Retry the task once the database is reachable")
	}

	order, err := p.buildOrder(ctx, detail.RowNumber, recognized, customer, product, unitPrice)
	if err != nil {
		return p.fail(ctx, detail, ingest.ErrorCategorySystem,
			"order creation failed: "+err.Error(), "Retry the task; the row data itself is valid")
	}

	p.publishEvents(ctx, order)

	confidence := customer.Confidence
	if product.Confidence < confidence {
		confidence = product.Confidence
	}
	if err := detail.FinalizeSuccess(order.ID, confidence); err == nil {
		p.saveDetail(ctx, detail)
	}
	return ingest.CounterDelta{Succeeded: 1, Confidence: confidence}
}

// buildOrder allocates an order number, assembles and confirms the order,
// and persists it with its source row link
func (p *rowProcessor) buildOrder(ctx context.Context, rowNumber int, recognized *recognize.RecognizedRow, customer, product *match.Result, unitPrice decimal.Decimal) (*trade.Order, error) {
	number, err := p.numbers.Next(ctx, p.ownerKey, p.channel)
	if err != nil {
		return nil, err
	}

	order, err := trade.NewOrder(p.task.CompanyID, number, p.channel, customer.EntityID, customer.Code, customer.Name)
	if err != nil {
		return nil, err
	}

	sourceDesc := recognized.ProductName
	if sourceDesc == "" {
		sourceDesc = recognized.SKU
	}
	if _, err := order.AddItem(product.EntityID, product.Code, product.Name, sourceDesc,
		decimal.NewFromFloat(product.Confidence), *recognized.Quantity, unitPrice); err != nil {
		return nil, err
	}
	if err := order.LinkSourceRow(p.task.ID, rowNumber); err != nil {
		return nil, err
	}
	if recognized.Remark != "" {
		order.SetRemark(recognized.Remark)
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	if err := p.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// resolveUnitPrice prefers the price from the file and falls back to the
// catalog sale price of the matched product
func (p *rowProcessor) resolveUnitPrice(ctx context.Context, recognized *recognize.RecognizedRow, productID uuid.UUID) (decimal.Decimal, error) {
	if recognized.UnitPrice != nil && !recognized.UnitPrice.IsNegative() {
		return *recognized.UnitPrice, nil
	}
	product, err := p.productRepo.FindByID(ctx, p.task.CompanyID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return product.SalePrice, nil
}

func (p *rowProcessor) publishEvents(ctx context.Context, order *trade.Order) {
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, events...); err != nil {
		p.logger.Warn("event publish failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}
	order.ClearDomainEvents()
}

func (p *rowProcessor) fail(ctx context.Context, detail *ingest.RowDetail, category ingest.ErrorCategory, message, suggestion string) ingest.CounterDelta {
	if err := detail.FinalizeFailed(category, message, suggestion); err != nil {
		p.logger.Error("row finalization failed", zap.Int("row_number", detail.RowNumber), zap.Error(err))
	}
	p.saveDetail(ctx, detail)
	p.recordError(ctx, detail, category, message, suggestion)
	return ingest.CounterDelta{Failed: 1}
}

func (p *rowProcessor) manual(ctx context.Context, detail *ingest.RowDetail, category ingest.ErrorCategory, message, suggestion string, confidence float64, topCandidate string) ingest.CounterDelta {
	if err := detail.FinalizeManual(category, message, suggestion, confidence, topCandidate); err != nil {
		p.logger.Error("row finalization failed", zap.Int("row_number", detail.RowNumber), zap.Error(err))
	}
	p.saveDetail(ctx, detail)
	p.recordError(ctx, detail, category, message, suggestion)
	return ingest.CounterDelta{Manual: 1, Confidence: confidence}
}

// skip finalizes the row as SKIPPED without contributing to the counters;
// the task will not complete but is already on its way to CANCELLED
func (p *rowProcessor) skip(ctx context.Context, detail *ingest.RowDetail, message string) ingest.CounterDelta {
	if err := detail.FinalizeSkipped(message); err == nil {
		p.saveDetail(context.WithoutCancel(ctx), detail)
	}
	return ingest.CounterDelta{}
}

func (p *rowProcessor) saveDetail(ctx context.Context, detail *ingest.RowDetail) {
	if err := p.rowRepo.Save(ctx, detail); err != nil {
		p.logger.Error("row detail save failed",
			zap.String("task_id", detail.TaskID.String()),
			zap.Int("row_number", detail.RowNumber),
			zap.Error(err))
	}
}

func (p *rowProcessor) recordError(ctx context.Context, detail *ingest.RowDetail, category ingest.ErrorCategory, message, suggestion string) {
	record, err := ingest.NewErrorOrder(p.task.CompanyID, p.task.ID, detail.RowNumber, detail.RawPayload, category, message, suggestion)
	if err != nil {
		p.logger.Error("error record creation failed", zap.Int("row_number", detail.RowNumber), zap.Error(err))
		return
	}
	if err := p.errorRepo.Upsert(ctx, record); err != nil {
		p.logger.Error("error record upsert failed",
			zap.String("task_id", detail.TaskID.String()),
			zap.Int("row_number", detail.RowNumber),
			zap.Error(err))
	}
}

// validateRow checks the business rules every row must satisfy before any
// matching starts
func validateRow(row *recognize.RecognizedRow) (message, suggestion string, ok bool) {
	if row.SKU == "" && row.ProductName == "" {
		return "row has neither a SKU nor a product name",
			"Add a product identifier column to the file", false
	}
	if row.Quantity == nil {
		return "quantity is missing or not numeric",
			"Fill the quantity column with a positive number", false
	}
	if row.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Sprintf("quantity %s is not positive", row.Quantity.String()),
			"Fill the quantity column with a positive number", false
	}
	if row.UnitPrice != nil && row.UnitPrice.IsNegative() {
		return fmt.Sprintf("unit price %s is negative", row.UnitPrice.String()),
			"Remove the sign or clear the price column to use the catalog price", false
	}
	if row.CustomerCode == "" && row.CustomerName == "" && row.CustomerPhone == "" {
		return "row has no customer code, name or phone",
			"Add a customer identifier column to the file", false
	}
	return "", "", true
}

// encodeRawPayload serializes a row as an ordered header to cell map
func encodeRawPayload(headers, cells []string) string {
	payload := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			payload[h] = cells[i]
		} else {
			payload[h] = ""
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}

func encodeCandidate(result *match.Result) string {
	data, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(data)
}
