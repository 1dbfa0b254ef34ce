package rbac

import (
	"context"
	"fmt"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/core/tx"
	"branchpos/pkg/logger"
)

// Invalidator drops cached decisions after a policy edit.
type Invalidator interface {
	Purge()
}

// Explainer resolves a decision with its provenance.
type Explainer interface {
	Explain(ctx context.Context, userID, role, resourceKey, actionKey string) (Explanation, error)
}

// AdminService edits stored rules. Callers are authorized by the HTTP layer
// (permissions.page); the service validates input and keeps caches coherent.
type AdminService struct {
	store     AdminStore
	txm       tx.Manager
	explainer Explainer
	cache     Invalidator
	log       *logger.Logger
}

// NewAdminService creates the service. cache may be nil.
func NewAdminService(store AdminStore, txm tx.Manager, explainer Explainer, cache Invalidator, log *logger.Logger) *AdminService {
	return &AdminService{
		store:     store,
		txm:       txm,
		explainer: explainer,
		cache:     cache,
		log:       log.WithComponent("policy-admin"),
	}
}

// RuleInput is a rule edit request.
type RuleInput struct {
	ResourceKey string
	ActionKey   string
	Decision    security.Decision
}

func (in RuleInput) validate() error {
	if in.ResourceKey == "" {
		return apperror.NewValidation("resource is required").WithDetail("field", "resource")
	}
	if !isAction(in.ActionKey) {
		return apperror.NewValidation("unknown action").WithDetail("action", in.ActionKey)
	}
	if in.Decision.Effect != security.EffectAllow && in.Decision.Effect != security.EffectDeny {
		return apperror.NewValidation("effect must be allow or deny").WithDetail("effect", in.Decision.Effect)
	}
	if !in.Decision.Scope.Valid() {
		return apperror.NewValidation("unknown scope").WithDetail("scope", in.Decision.Scope)
	}
	if in.Decision.Effect == security.EffectAllow && in.Decision.Scope == security.ScopeNone {
		return apperror.NewValidation("allow requires scope own, branch or all")
	}
	return nil
}

func isAction(key string) bool {
	for _, a := range security.Actions {
		if string(a) == key {
			return true
		}
	}
	return false
}

// SetUserOverride stores a user-specific rule that takes precedence over the
// role default.
func (s *AdminService) SetUserOverride(ctx context.Context, userID id.ID, in RuleInput) error {
	if id.IsNil(userID) {
		return apperror.NewValidation("user id is required").WithDetail("field", "userId")
	}
	if err := in.validate(); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.UpsertUserOverride(ctx, userID, in.ResourceKey, in.ActionKey, in.Decision)
	})
	if err != nil {
		return fmt.Errorf("set user override: %w", err)
	}

	s.changed(ctx, "user override set", "user_id", userID, "resource", in.ResourceKey, "action", in.ActionKey, "decision", in.Decision.String())
	return nil
}

// DeleteUserOverride removes a user-specific rule; the role default applies again.
func (s *AdminService) DeleteUserOverride(ctx context.Context, userID id.ID, resourceKey, actionKey string) error {
	if !isAction(actionKey) {
		return apperror.NewValidation("unknown action").WithDetail("action", actionKey)
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.DeleteUserOverride(ctx, userID, resourceKey, actionKey)
	})
	if err != nil {
		return fmt.Errorf("delete user override: %w", err)
	}

	s.changed(ctx, "user override deleted", "user_id", userID, "resource", resourceKey, "action", actionKey)
	return nil
}

// SetRoleDefault overwrites a role default. Unlike bootstrap, this is an explicit
// administrative edit and replaces the stored row.
func (s *AdminService) SetRoleDefault(ctx context.Context, roleName string, in RuleInput) error {
	role, ok := security.NormalizeRole(roleName)
	if !ok {
		return apperror.NewValidation("unknown role").WithDetail("role", roleName)
	}
	if err := in.validate(); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.UpsertRoleDefault(ctx, role, in.ResourceKey, in.ActionKey, in.Decision)
	})
	if err != nil {
		return fmt.Errorf("set role default: %w", err)
	}

	s.changed(ctx, "role default set", "role", role, "resource", in.ResourceKey, "action", in.ActionKey, "decision", in.Decision.String())
	return nil
}

// Explain reports the effective decision for an actor and where it came from.
func (s *AdminService) Explain(ctx context.Context, userID, role, resourceKey, actionKey string) (Explanation, error) {
	return s.explainer.Explain(ctx, userID, role, resourceKey, actionKey)
}

func (s *AdminService) changed(ctx context.Context, msg string, kv ...any) {
	if s.cache != nil {
		s.cache.Purge()
	}
	s.log.WithContext(ctx).Infow(msg, kv...)
}
