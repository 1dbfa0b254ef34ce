package security

import (
	"context"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/tenancy"
)

// Filter narrows a query. Empty fields add no predicate.
type Filter struct {
	OwnerID  string
	BranchID string
}

// IsZero reports whether the filter narrows nothing.
func (f Filter) IsZero() bool {
	return f.OwnerID == "" && f.BranchID == ""
}

// Stamp holds the values forced onto a create/update payload.
type Stamp struct {
	BranchID string
	OwnerID  string
}

// ReadFilter combines a client-requested filter with the decision's scope.
// The scope always wins: own pins the owner to the actor and branch pins the
// branch to the scope's branch, whatever the client asked for.
func ReadFilter(ctx context.Context, d Decision, requested Filter) (Filter, error) {
	tc, err := tenancy.Require(ctx)
	if err != nil {
		return Filter{}, apperror.NewInternal(err)
	}

	d = d.Normalize()
	f := requested

	switch d.Scope {
	case ScopeOwn:
		if tc.UserID == "" {
			return Filter{}, apperror.NewUnauthorized("authentication required")
		}
		f.OwnerID = tc.UserID
	case ScopeBranch:
		if !tc.HasBranch() {
			return Filter{}, apperror.NewNoActiveBranch()
		}
		f.BranchID = tc.BranchID
	case ScopeAll:
	default:
		return Filter{}, apperror.NewForbidden("insufficient permissions").
			WithDetail("scope", d.Scope)
	}

	return f, nil
}

// WriteStamp returns the branch and owner that must be written on a
// branch-partitioned row. Values always come from the scope, never from the payload,
// and a missing branch rejects the write for every scope including all.
func WriteStamp(ctx context.Context, d Decision) (Stamp, error) {
	tc, err := tenancy.Require(ctx)
	if err != nil {
		return Stamp{}, apperror.NewInternal(err)
	}

	if !d.Allowed() {
		return Stamp{}, apperror.NewForbidden("insufficient permissions").
			WithDetail("scope", d.Normalize().Scope)
	}
	if !tc.HasBranch() {
		return Stamp{}, apperror.NewNoActiveBranch()
	}
	if tc.UserID == "" {
		return Stamp{}, apperror.NewUnauthorized("authentication required")
	}

	return Stamp{BranchID: tc.BranchID, OwnerID: tc.UserID}, nil
}
