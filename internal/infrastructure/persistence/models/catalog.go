package models

import (
	"github.com/shopspring/decimal"

	"github.com/supplyhub/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	CompanyAggregateModel
	SKU           string                `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_company_sku,priority:2"`
	Name          string                `gorm:"type:varchar(200);not null"`
	Specification string                `gorm:"type:varchar(200)"`
	Unit          string                `gorm:"type:varchar(20);not null;default:'pcs'"`
	SalePrice     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status        catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	product := &catalog.Product{
		SKU:           m.SKU,
		Name:          m.Name,
		Specification: m.Specification,
		Unit:          m.Unit,
		SalePrice:     m.SalePrice,
		Status:        m.Status,
	}
	m.PopulateCompanyAggregateRoot(&product.CompanyAggregateRoot)
	return product
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainCompanyAggregateRoot(p.CompanyAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Specification = p.Specification
	m.Unit = p.Unit
	m.SalePrice = p.SalePrice
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
