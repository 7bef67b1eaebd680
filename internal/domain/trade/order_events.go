package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated = "OrderCreated"
)

// OrderItemInfo represents item information for events
type OrderItemInfo struct {
	ItemID            uuid.UUID       `json:"item_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	SourceDescription string          `json:"source_description,omitempty"`
	MatchConfidence   decimal.Decimal `json:"match_confidence"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Amount            decimal.Decimal `json:"amount"`
}

// OrderCreatedEvent is raised when an order is confirmed and becomes visible
// to downstream systems. Subscribers include the webhook notifier.
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	Channel         Channel         `json:"channel"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	Items           []OrderItemInfo `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	SourceTaskID    *uuid.UUID      `json:"source_task_id,omitempty"`
	SourceRowNumber int             `json:"source_row_number,omitempty"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	items := make([]OrderItemInfo, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemInfo{
			ItemID:            item.ID,
			ProductID:         item.ProductID,
			SKU:               item.SKU,
			ProductName:       item.ProductName,
			SourceDescription: item.SourceDescription,
			MatchConfidence:   item.MatchConfidence,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			Amount:            item.Amount,
		}
	}

	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID, order.CompanyID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Channel:         order.Channel,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		Items:           items,
		TotalAmount:     order.TotalAmount,
		SourceTaskID:    order.SourceTaskID,
		SourceRowNumber: order.SourceRowNumber,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}
