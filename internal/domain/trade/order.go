package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusCancelled
	case OrderStatusCancelled:
		return false
	}
	return false
}

// OrderItem represents a line item in an order.
// When the order was built from an imported spreadsheet row, SourceDescription
// keeps the raw product text from the row and MatchConfidence records how
// confident the matcher was when it resolved ProductID from that text.
// Manually keyed items carry a confidence of 1.
type OrderItem struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	ProductID         uuid.UUID
	SKU               string
	ProductName       string
	SourceDescription string
	MatchConfidence   decimal.Decimal
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	Amount            decimal.Decimal // Quantity * UnitPrice
	Unit              string
	Remark            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewOrderItem creates a new order item
// Parameters:
//   - orderID: the parent order ID
//   - productID: the resolved product ID
//   - sku, productName: resolved product display info
//   - sourceDescription: the raw product text the item was built from
//   - matchConfidence: matcher confidence for the product resolution, in [0, 1]
//   - quantity: quantity in the product unit
//   - unitPrice: price per unit
func NewOrderItem(orderID, productID uuid.UUID, sku, productName, sourceDescription string, matchConfidence, quantity, unitPrice decimal.Decimal) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if matchConfidence.IsNegative() || matchConfidence.GreaterThan(decimal.NewFromInt(1)) {
		return nil, shared.NewDomainError("INVALID_CONFIDENCE", "Match confidence must be between 0 and 1")
	}

	now := time.Now()
	return &OrderItem{
		ID:                uuid.New(),
		OrderID:           orderID,
		ProductID:         productID,
		SKU:               sku,
		ProductName:       productName,
		SourceDescription: sourceDescription,
		MatchConfidence:   matchConfidence,
		Quantity:          quantity,
		UnitPrice:         unitPrice,
		Amount:            quantity.Mul(unitPrice).Round(4),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// UpdateQuantity updates the item quantity and recalculates the amount
func (i *OrderItem) UpdateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	i.Quantity = quantity
	i.Amount = quantity.Mul(i.UnitPrice).Round(4)
	i.UpdatedAt = time.Now()

	return nil
}

// Order represents a sales order aggregate root.
// Orders created by the spreadsheet ingestion pipeline carry a reference back
// to the task and row they were built from.
type Order struct {
	shared.CompanyAggregateRoot
	OrderNumber     string
	Channel         Channel
	CustomerID      uuid.UUID
	CustomerCode    string
	CustomerName    string
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	Remark          string
	SourceTaskID    *uuid.UUID // set when created by spreadsheet ingestion
	SourceRowNumber int        // 1-based data row in the source file, 0 otherwise
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewOrder creates a new draft order
func NewOrder(companyID uuid.UUID, orderNumber string, channel Channel, customerID uuid.UUID, customerCode, customerName string) (*Order, error) {
	if err := ValidateNumberFormat(orderNumber); err != nil {
		return nil, err
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", fmt.Sprintf("Unknown sales channel %q", channel))
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}

	order := &Order{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		OrderNumber:          orderNumber,
		Channel:              channel,
		CustomerID:           customerID,
		CustomerCode:         customerCode,
		CustomerName:         customerName,
		Items:                make([]OrderItem, 0),
		TotalAmount:          decimal.Zero,
		Status:               OrderStatusDraft,
	}

	return order, nil
}

// LinkSourceRow records the ingestion task and row this order was built from.
// Only allowed in DRAFT status.
func (o *Order) LinkSourceRow(taskID uuid.UUID, rowNumber int) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot link source row on a non-draft order")
	}
	if taskID == uuid.Nil {
		return shared.NewDomainError("INVALID_TASK", "Task ID cannot be empty")
	}
	if rowNumber <= 0 {
		return shared.NewDomainError("INVALID_ROW", "Row number must be positive")
	}

	o.SourceTaskID = &taskID
	o.SourceRowNumber = rowNumber
	o.UpdatedAt = time.Now()

	return nil
}

// AddItem adds a new item to the order
// Only allowed in DRAFT status
func (o *Order) AddItem(productID uuid.UUID, sku, productName, sourceDescription string, matchConfidence, quantity, unitPrice decimal.Decimal) (*OrderItem, error) {
	if o.Status != OrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft order")
	}

	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order, update quantity instead")
		}
	}

	item, err := NewOrderItem(o.ID, productID, sku, productName, sourceDescription, matchConfidence, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing item
// Only allowed in DRAFT status
func (o *Order) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items in a non-draft order")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			o.recalculateTotal()
			o.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// RemoveItem removes an item from the order
// Only allowed in DRAFT status
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-draft order")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotal()
			o.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// SetRemark sets the order remark
func (o *Order) SetRemark(remark string) {
	o.Remark = remark
	o.UpdatedAt = time.Now()
}

// Confirm confirms the order, transitioning from DRAFT to CONFIRMED
// Requires at least one item in the order
func (o *Order) Confirm() error {
	if !o.Status.CanTransitionTo(OrderStatusConfirmed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm order without items")
	}

	now := time.Now()
	o.Status = OrderStatusConfirmed
	o.ConfirmedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return nil
}

// Cancel cancels the order
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now

	return nil
}

// recalculateTotal recalculates the order total from its items
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
}

// ItemCount returns the number of items in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// MinMatchConfidence returns the lowest matcher confidence across all items,
// or 1 for an empty order.
func (o *Order) MinMatchConfidence() decimal.Decimal {
	min := decimal.NewFromInt(1)
	for _, item := range o.Items {
		if item.MatchConfidence.LessThan(min) {
			min = item.MatchConfidence
		}
	}
	return min
}

// IsDraft returns true if order is in draft status
func (o *Order) IsDraft() bool {
	return o.Status == OrderStatusDraft
}

// IsConfirmed returns true if order is confirmed
func (o *Order) IsConfirmed() bool {
	return o.Status == OrderStatusConfirmed
}

// IsCancelled returns true if order is cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// GetItem returns an item by its ID
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}
