package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supplyhub/backend/internal/domain/trade"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	CompanyAggregateModel
	OrderNumber     string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_company_number,priority:2"`
	Channel         trade.Channel     `gorm:"type:varchar(2);not null"`
	CustomerID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	CustomerCode    string            `gorm:"type:varchar(50)"`
	CustomerName    string            `gorm:"type:varchar(200);not null"`
	Items           []OrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Status          trade.OrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Remark          string            `gorm:"type:text"`
	SourceTaskID    *uuid.UUID        `gorm:"type:uuid;index"`
	SourceRowNumber int               `gorm:"not null;default:0"`
	ConfirmedAt     *time.Time        `gorm:"index"`
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		OrderNumber:     m.OrderNumber,
		Channel:         m.Channel,
		CustomerID:      m.CustomerID,
		CustomerCode:    m.CustomerCode,
		CustomerName:    m.CustomerName,
		TotalAmount:     m.TotalAmount,
		Status:          m.Status,
		Remark:          m.Remark,
		SourceTaskID:    m.SourceTaskID,
		SourceRowNumber: m.SourceRowNumber,
		ConfirmedAt:     m.ConfirmedAt,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
		Items:           make([]trade.OrderItem, len(m.Items)),
	}
	m.PopulateCompanyAggregateRoot(&order.CompanyAggregateRoot)
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainCompanyAggregateRoot(o.CompanyAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.Channel = o.Channel
	m.CustomerID = o.CustomerID
	m.CustomerCode = o.CustomerCode
	m.CustomerName = o.CustomerName
	m.TotalAmount = o.TotalAmount
	m.Status = o.Status
	m.Remark = o.Remark
	m.SourceTaskID = o.SourceTaskID
	m.SourceRowNumber = o.SourceRowNumber
	m.ConfirmedAt = o.ConfirmedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&item)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for the OrderItem entity.
type OrderItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null"`
	SKU               string          `gorm:"type:varchar(64);not null"`
	ProductName       string          `gorm:"type:varchar(200);not null"`
	SourceDescription string          `gorm:"type:text"`
	MatchConfidence   decimal.Decimal `gorm:"type:decimal(5,4);not null;default:1"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit              string          `gorm:"type:varchar(20)"`
	Remark            string          `gorm:"type:varchar(500)"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem entity.
func (m *OrderItemModel) ToDomain() *trade.OrderItem {
	return &trade.OrderItem{
		ID:                m.ID,
		OrderID:           m.OrderID,
		ProductID:         m.ProductID,
		SKU:               m.SKU,
		ProductName:       m.ProductName,
		SourceDescription: m.SourceDescription,
		MatchConfidence:   m.MatchConfidence,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		Amount:            m.Amount,
		Unit:              m.Unit,
		Remark:            m.Remark,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem entity.
func OrderItemModelFromDomain(i *trade.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:                i.ID,
		OrderID:           i.OrderID,
		ProductID:         i.ProductID,
		SKU:               i.SKU,
		ProductName:       i.ProductName,
		SourceDescription: i.SourceDescription,
		MatchConfidence:   i.MatchConfidence,
		Quantity:          i.Quantity,
		UnitPrice:         i.UnitPrice,
		Amount:            i.Amount,
		Unit:              i.Unit,
		Remark:            i.Remark,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}
