package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDisabled ProductStatus = "disabled"
)

// Product represents a sellable product in the company catalog.
// The ingestion pipeline reads the catalog but never mutates it.
type Product struct {
	shared.CompanyAggregateRoot
	SKU           string
	Name          string
	Specification string
	Unit          string
	SalePrice     decimal.Decimal
	Status        ProductStatus
}

// NewProduct creates a new product with required fields
func NewProduct(companyID uuid.UUID, sku, name string) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 64 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		SKU:                  sku,
		Name:                 name,
		Unit:                 "pcs",
		SalePrice:            decimal.Zero,
		Status:               ProductStatusActive,
	}, nil
}

// IsActive returns true if the product can be ordered
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// DisplayName returns the name with specification appended when present
func (p *Product) DisplayName() string {
	if p.Specification == "" {
		return p.Name
	}
	return p.Name + " " + p.Specification
}
