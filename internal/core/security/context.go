package security

import "context"

type decisionKey struct {
	resource string
	action   Action
}

// WithDecision stores a resolved decision for (resource, action) in ctx.
// Used by the permission middleware so services do not resolve the same triple twice.
func WithDecision(ctx context.Context, resource string, action Action, d Decision) context.Context {
	return context.WithValue(ctx, decisionKey{resource: resource, action: action}, d)
}

// DecisionFrom returns a decision previously stored for (resource, action).
func DecisionFrom(ctx context.Context, resource string, action Action) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{resource: resource, action: action}).(Decision)
	return d, ok
}
