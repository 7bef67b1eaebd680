package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines read access to the product catalog.
// All lookups are scoped to a company; the matcher preloads the active
// set once per task rather than issuing per-row queries.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Product, error)
	// FindBySKU finds a product by exact, case-sensitive SKU
	FindBySKU(ctx context.Context, companyID uuid.UUID, sku string) (*Product, error)
	// FindActive returns all active products for a company
	FindActive(ctx context.Context, companyID uuid.UUID) ([]*Product, error)
	// Save persists a product (used by seeding and tests, not by ingestion)
	Save(ctx context.Context, product *Product) error
}
