package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByNumber finds an order by order number for a company
	FindByNumber(ctx context.Context, companyID uuid.UUID, orderNumber string) (*Order, error)

	// FindByTask finds all orders created from an ingestion task
	FindByTask(ctx context.Context, taskID uuid.UUID) ([]Order, error)

	// Save creates or updates an order together with its items
	Save(ctx context.Context, order *Order) error

	// ExistsByNumber checks if an order number exists for a company
	ExistsByNumber(ctx context.Context, companyID uuid.UUID, orderNumber string) (bool, error)
}
