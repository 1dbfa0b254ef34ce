package security

import (
	"context"
	"fmt"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/tenancy"
)

// PolicyResolver computes the effective decision for one actor and triple.
// Unknown resources or actions resolve to Deny; only storage failures are errors.
type PolicyResolver interface {
	Resolve(ctx context.Context, userID, role, resourceKey, actionKey string) (Decision, error)
}

// Guard authorizes operations for the actor of the ambient tenancy scope.
type Guard struct {
	resolver PolicyResolver
}

// NewGuard creates a guard backed by resolver.
func NewGuard(resolver PolicyResolver) *Guard {
	return &Guard{resolver: resolver}
}

// Check resolves (resource, action) for the current actor and rejects denied access
// before any storage is touched.
func (g *Guard) Check(ctx context.Context, resource string, action Action) (Decision, error) {
	if d, ok := DecisionFrom(ctx, resource, action); ok {
		return d, requireAllowed(d, resource, action)
	}

	tc := tenancy.FromContext(ctx)
	if tc == nil || tc.Unscoped() || tc.UserID == "" {
		return Deny(), apperror.NewUnauthorized("authentication required")
	}

	d, err := g.resolver.Resolve(ctx, tc.UserID, tc.Role, resource, string(action))
	if err != nil {
		return Deny(), apperror.NewInternal(fmt.Errorf("resolve %s:%s: %w", resource, action, err))
	}
	d = d.Normalize()
	return d, requireAllowed(d, resource, action)
}

func requireAllowed(d Decision, resource string, action Action) error {
	if d.Allowed() {
		return nil
	}
	return NewForbidden(resource, action)
}

// NewForbidden builds the 403 error for a denied triple.
func NewForbidden(resource string, action Action) *apperror.AppError {
	return apperror.NewForbidden("insufficient permissions").
		WithDetail("resource", resource).
		WithDetail("action", action)
}
