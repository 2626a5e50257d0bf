package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines read access to the product catalog
type ProductRepository interface {
	// FindAll lists products matching the filter ordered by name
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)

	// FindByIDs returns the products with the given IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
}
