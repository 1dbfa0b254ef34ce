// Package branch manages shop branches and the per-session branch an administrator
// is working in.
package branch

import (
	"context"
	"time"

	"branchpos/internal/core/id"
)

// Branch is one physical shop.
type Branch struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Repository reads branches through the ambient tenancy scope.
type Repository interface {
	// GetByID returns the branch or a NotFound error.
	GetByID(ctx context.Context, branchID id.ID) (*Branch, error)

	// ListActive returns active branches ordered by code.
	ListActive(ctx context.Context) ([]Branch, error)
}

// SelectionStore keeps the branch selected for a session.
type SelectionStore interface {
	// Get returns the selected branch id; ok is false when nothing is selected.
	Get(ctx context.Context, sessionID string) (branchID string, ok bool, err error)

	// Set records the selection.
	Set(ctx context.Context, sessionID, branchID string) error

	// Delete forgets the selection. Missing entries are not an error.
	Delete(ctx context.Context, sessionID string) error
}
