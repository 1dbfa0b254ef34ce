package product

import (
	"context"

	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/domain"
)

// Repository defines product persistence. Every method that addresses existing
// rows takes the scope filter; rows outside it behave as missing.
type Repository interface {
	// List returns products matching scope and filter.
	List(ctx context.Context, scope security.Filter, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// GetByID returns the product or NotFound.
	GetByID(ctx context.Context, productID id.ID, scope security.Filter) (*Product, error)

	// Create inserts p. Branch and owner must already be stamped.
	Create(ctx context.Context, p *Product) error

	// Update writes mutable fields with optimistic locking on p.Version.
	Update(ctx context.Context, p *Product, scope security.Filter) error

	// Delete removes the product or returns NotFound.
	Delete(ctx context.Context, productID id.ID, scope security.Filter) error
}
