package rbac

import (
	"context"
	"fmt"

	"branchpos/internal/core/security"
	"branchpos/pkg/logger"
)

// DecisionRecorder receives one event per resolved decision.
type DecisionRecorder interface {
	PolicyDecision(source, effect string)
}

// Compile-time check that Resolver implements security.PolicyResolver.
var _ security.PolicyResolver = (*Resolver)(nil)

// Resolver computes effective decisions: user override, then role default,
// then implicit deny.
type Resolver struct {
	store    PolicyStore
	log      *logger.Logger
	recorder DecisionRecorder
}

// NewResolver creates a resolver. recorder may be nil.
func NewResolver(store PolicyStore, log *logger.Logger, recorder DecisionRecorder) *Resolver {
	return &Resolver{
		store:    store,
		log:      log.WithComponent("policy-resolver"),
		recorder: recorder,
	}
}

// Resolve returns the normalized effective decision.
func (r *Resolver) Resolve(ctx context.Context, userID, role, resourceKey, actionKey string) (security.Decision, error) {
	e, err := r.Explain(ctx, userID, role, resourceKey, actionKey)
	if err != nil {
		return security.Deny(), err
	}
	return e.Decision, nil
}

// Explain is Resolve plus the layer the decision came from.
func (r *Resolver) Explain(ctx context.Context, userID, role, resourceKey, actionKey string) (Explanation, error) {
	key := PolicyKey{UserID: userID, ResourceKey: resourceKey, ActionKey: actionKey}

	canon, ok := security.NormalizeRole(role)
	if ok {
		key.Role = canon
	} else {
		r.log.WithContext(ctx).Warnw("unknown role, role defaults skipped", "role", role)
	}

	rows, err := r.store.LookupRules(ctx, key)
	if err != nil {
		return Explanation{Decision: security.Deny(), Source: SourceImplicit},
			fmt.Errorf("lookup rules for %s:%s: %w", resourceKey, actionKey, err)
	}

	if !rows.ResourceKnown || !rows.ActionKnown {
		r.log.WithContext(ctx).Warnw("permission catalog has no entry, denying",
			"resource", resourceKey,
			"action", actionKey,
			"resource_known", rows.ResourceKnown,
			"action_known", rows.ActionKnown,
		)
	}

	e := Evaluate(rows)
	if r.recorder != nil {
		r.recorder.PolicyDecision(string(e.Source), string(e.Decision.Effect))
	}
	return e, nil
}

// Evaluate applies precedence to rows. The result is always normalized: an
// allow without a usable scope is reported as deny/none.
func Evaluate(rows PolicyRows) Explanation {
	if !rows.ResourceKnown || !rows.ActionKnown {
		return Explanation{Decision: security.Deny(), Source: SourceImplicit}
	}
	if rows.Override != nil {
		return Explanation{Decision: rows.Override.Normalize(), Source: SourceOverride}
	}
	if rows.Default != nil {
		return Explanation{Decision: rows.Default.Normalize(), Source: SourceRole}
	}
	return Explanation{Decision: security.Deny(), Source: SourceImplicit}
}
