package partner

import (
	"strings"

	"github.com/google/uuid"
	"github.com/supplyhub/backend/internal/domain/shared"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Customer represents a buying partner in the company catalog.
// Like products, customers are read-only collaborators of the ingestion
// pipeline; CRUD lives elsewhere.
type Customer struct {
	shared.CompanyAggregateRoot
	Code        string
	Name        string
	ContactName string
	Phone       string
	Address     string
	Status      CustomerStatus
}

// NewCustomer creates a new customer with required fields
func NewCustomer(companyID uuid.UUID, code, name string) (*Customer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}

	return &Customer{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Code:                 strings.ToUpper(code),
		Name:                 name,
		Status:               CustomerStatusActive,
	}, nil
}

// IsActive returns true if orders may be created for the customer
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}
