package branch

import (
	"context"
	"fmt"

	"branchpos/internal/core/apperror"
	appctx "branchpos/internal/core/context"
	"branchpos/internal/core/id"
	"branchpos/pkg/logger"
)

// State is what the session is narrowed to.
type State struct {
	// Selected is false for an administrator working across all branches.
	Selected bool    `json:"selected"`
	BranchID string  `json:"branchId,omitempty"`
	Branch   *Branch `json:"branch,omitempty"`
	// Fixed is true for non-administrators, whose branch cannot change.
	Fixed bool `json:"fixed"`
}

// Selector lets an administrator narrow a session to one branch.
// Non-administrators are always pinned to their home branch.
type Selector struct {
	repo  Repository
	store SelectionStore
	log   *logger.Logger
}

// NewSelector creates a selector.
func NewSelector(repo Repository, store SelectionStore, log *logger.Logger) *Selector {
	return &Selector{
		repo:  repo,
		store: store,
		log:   log.WithComponent("branch-selector"),
	}
}

// EffectiveBranch returns the branch a request of actor runs in, or "" for an
// administrator with no selection. It reads only the selection store, so it can run
// before a tenancy scope exists.
func (s *Selector) EffectiveBranch(ctx context.Context, actor *appctx.UserContext) (string, error) {
	if actor == nil {
		return "", apperror.NewUnauthorized("authentication required")
	}
	if !actor.IsAdmin {
		return actor.BranchID, nil
	}
	if actor.SessionID == "" {
		return "", nil
	}

	branchID, ok, err := s.store.Get(ctx, actor.SessionID)
	if err != nil {
		return "", fmt.Errorf("read branch selection: %w", err)
	}
	if !ok {
		return "", nil
	}
	return branchID, nil
}

// Select narrows the administrator's session to branchID. The branch must exist
// and be active.
func (s *Selector) Select(ctx context.Context, actor *appctx.UserContext, branchID string) (State, error) {
	if err := requireAdminSession(actor); err != nil {
		return State{}, err
	}

	bid, err := id.Parse(branchID)
	if err != nil {
		return State{}, apperror.NewValidation("invalid branch id").WithDetail("branchId", branchID)
	}

	b, err := s.repo.GetByID(ctx, bid)
	if err != nil {
		return State{}, err
	}
	if !b.IsActive {
		return State{}, apperror.NewBusinessRule("BRANCH_INACTIVE", "branch is not active").WithDetail("branchId", branchID)
	}

	if err := s.store.Set(ctx, actor.SessionID, b.ID.String()); err != nil {
		return State{}, fmt.Errorf("store branch selection: %w", err)
	}

	logger.Info(ctx, "branch selected", "session_id", actor.SessionID, "branch_id", b.ID)
	return State{Selected: true, BranchID: b.ID.String(), Branch: b}, nil
}

// Clear returns the session to the unselected state. Called on logout too.
func (s *Selector) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear branch selection: %w", err)
	}
	return nil
}

// ConfirmSelection checks that an administrator's stored selection still
// names an active branch. A stale selection is cleared and the request fails
// with NO_ACTIVE_BRANCH. It reads branches, so it must run inside a scope.
// Non-administrators and unselected sessions pass unchanged.
func (s *Selector) ConfirmSelection(ctx context.Context, actor *appctx.UserContext, branchID string) error {
	if actor == nil || !actor.IsAdmin || branchID == "" {
		return nil
	}
	_, err := s.activeSelection(ctx, actor, branchID)
	return err
}

// activeSelection loads the selected branch. When it is unknown or inactive the
// selection is dropped and NO_ACTIVE_BRANCH is returned.
func (s *Selector) activeSelection(ctx context.Context, actor *appctx.UserContext, branchID string) (*Branch, error) {
	bid, err := id.Parse(branchID)
	if err == nil {
		b, err := s.repo.GetByID(ctx, bid)
		switch {
		case err == nil && b.IsActive:
			return b, nil
		case err != nil && !apperror.IsNotFound(err):
			return nil, err
		}
	}

	s.log.WithContext(ctx).Warnw("dropping stale branch selection",
		"session_id", actor.SessionID, "branch_id", branchID)
	if err := s.Clear(ctx, actor.SessionID); err != nil {
		return nil, err
	}
	return nil, apperror.NewNoActiveBranch().WithDetail("branchId", branchID)
}

// Current describes the branch state of actor. Branch details are loaded when the
// ambient scope can read them. An administrator whose selected branch was removed
// or deactivated is reported as unselected.
func (s *Selector) Current(ctx context.Context, actor *appctx.UserContext) (State, error) {
	branchID, err := s.EffectiveBranch(ctx, actor)
	if err != nil {
		return State{}, err
	}

	st := State{Fixed: !actor.IsAdmin, BranchID: branchID, Selected: branchID != ""}
	if branchID == "" {
		return st, nil
	}

	if actor.IsAdmin {
		b, err := s.activeSelection(ctx, actor, branchID)
		if apperror.IsNoActiveBranch(err) {
			return State{}, nil
		}
		if err != nil {
			return State{}, err
		}
		st.Branch = b
		return st, nil
	}

	bid, err := id.Parse(branchID)
	if err != nil {
		return st, nil
	}
	b, err := s.repo.GetByID(ctx, bid)
	if err != nil {
		if apperror.IsNotFound(err) {
			s.log.WithContext(ctx).Warnw("home branch does not exist", "branch_id", branchID)
			return st, nil
		}
		return State{}, err
	}
	st.Branch = b
	return st, nil
}

func requireAdminSession(actor *appctx.UserContext) error {
	if actor == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if !actor.IsAdmin {
		return apperror.NewForbidden("only administrators can switch branches")
	}
	if actor.SessionID == "" {
		return apperror.NewValidation("session id is required for branch selection")
	}
	return nil
}
