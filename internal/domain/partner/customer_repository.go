package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines read access to the customer catalog
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Customer, error)
	// FindByCode finds a customer by exact, case-sensitive code
	FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*Customer, error)
	// FindByPhone finds a customer by exact phone number
	FindByPhone(ctx context.Context, companyID uuid.UUID, phone string) (*Customer, error)
	// FindActive returns all active customers for a company
	FindActive(ctx context.Context, companyID uuid.UUID) ([]*Customer, error)
	// Save persists a customer (used by seeding and tests, not by ingestion)
	Save(ctx context.Context, customer *Customer) error
}
