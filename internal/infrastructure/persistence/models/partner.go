package models

import (
	"github.com/supplyhub/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	CompanyAggregateModel
	Code        string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_customer_company_code,priority:2"`
	Name        string                 `gorm:"type:varchar(200);not null"`
	ContactName string                 `gorm:"type:varchar(100)"`
	Phone       string                 `gorm:"type:varchar(50);index"`
	Address     string                 `gorm:"type:text"`
	Status      partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	customer := &partner.Customer{
		Code:        m.Code,
		Name:        m.Name,
		ContactName: m.ContactName,
		Phone:       m.Phone,
		Address:     m.Address,
		Status:      m.Status,
	}
	m.PopulateCompanyAggregateRoot(&customer.CompanyAggregateRoot)
	return customer
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainCompanyAggregateRoot(c.CompanyAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.ContactName = c.ContactName
	m.Phone = c.Phone
	m.Address = c.Address
	m.Status = c.Status
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
