// Package entity provides base types for domain entities.
package entity

import (
	"context"
	"time"

	"branchpos/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
// The version is incremented by the repository on successful update.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// BranchOwned marks rows partitioned by branch and owned by one user.
// Both fields are stamped from the tenancy scope on write, never from input.
type BranchOwned struct {
	BranchID id.ID `db:"branch_id" json:"branchId"`
	OwnerID  id.ID `db:"owner_id" json:"ownerId"`
}

// Assign sets branch and owner.
func (b *BranchOwned) Assign(branchID, ownerID id.ID) {
	b.BranchID = branchID
	b.OwnerID = ownerID
}
