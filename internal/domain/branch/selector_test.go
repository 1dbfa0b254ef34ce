package branch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchpos/internal/core/apperror"
	appctx "branchpos/internal/core/context"
	"branchpos/internal/core/id"
	"branchpos/pkg/logger"
)

type memRepo struct {
	branches map[id.ID]Branch
}

func (r *memRepo) GetByID(ctx context.Context, branchID id.ID) (*Branch, error) {
	b, ok := r.branches[branchID]
	if !ok {
		return nil, apperror.NewNotFound("branch", branchID.String())
	}
	return &b, nil
}

func (r *memRepo) ListActive(ctx context.Context) ([]Branch, error) {
	var out []Branch
	for _, b := range r.branches {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func newTestSelector() (*Selector, Branch, Branch) {
	active := Branch{ID: id.New(), Code: "A", Name: "Branch A", IsActive: true}
	closed := Branch{ID: id.New(), Code: "C", Name: "Closed", IsActive: false}
	repo := &memRepo{branches: map[id.ID]Branch{active.ID: active, closed.ID: closed}}
	return NewSelector(repo, NewMemoryStore(), logger.NewNop()), active, closed
}

func admin(session string) *appctx.UserContext {
	return &appctx.UserContext{UserID: id.New().String(), Role: "Admin", IsAdmin: true, SessionID: session}
}

func TestSelector_AdminSelectsAndClears(t *testing.T) {
	s, a, _ := newTestSelector()
	ctx := context.Background()
	actor := admin("sess-1")

	got, err := s.EffectiveBranch(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, got, "admin starts unselected")

	st, err := s.Select(ctx, actor, a.ID.String())
	require.NoError(t, err)
	assert.True(t, st.Selected)
	assert.Equal(t, a.ID.String(), st.BranchID)

	got, err = s.EffectiveBranch(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, a.ID.String(), got)

	other, err := s.EffectiveBranch(ctx, admin("sess-2"))
	require.NoError(t, err)
	assert.Empty(t, other, "selection belongs to one session")

	require.NoError(t, s.Clear(ctx, actor.SessionID))
	got, err = s.EffectiveBranch(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelector_RejectsInvalidTargets(t *testing.T) {
	s, _, closed := newTestSelector()
	ctx := context.Background()
	actor := admin("sess-1")

	_, err := s.Select(ctx, actor, "not-a-uuid")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = s.Select(ctx, actor, id.New().String())
	assert.True(t, apperror.IsNotFound(err))

	_, err = s.Select(ctx, actor, closed.ID.String())
	assert.True(t, apperror.HasCode(err, "BRANCH_INACTIVE"))

	got, _ := s.EffectiveBranch(ctx, actor)
	assert.Empty(t, got, "failed selections leave state unchanged")
}

func TestSelector_NonAdminIsPinned(t *testing.T) {
	s, a, _ := newTestSelector()
	ctx := context.Background()
	home := id.New().String()
	employee := &appctx.UserContext{UserID: id.New().String(), Role: "Employee", BranchID: home, SessionID: "sess-e"}

	_, err := s.Select(ctx, employee, a.ID.String())
	assert.True(t, apperror.IsForbidden(err))

	got, err := s.EffectiveBranch(ctx, employee)
	require.NoError(t, err)
	assert.Equal(t, home, got)

	st, err := s.Current(ctx, employee)
	require.NoError(t, err)
	assert.True(t, st.Fixed)
	assert.Equal(t, home, st.BranchID)
	assert.Nil(t, st.Branch, "unknown home branch is reported without details")
}

func TestSelector_CurrentLoadsBranch(t *testing.T) {
	s, a, _ := newTestSelector()
	ctx := context.Background()
	actor := admin("sess-1")

	_, err := s.Select(ctx, actor, a.ID.String())
	require.NoError(t, err)

	st, err := s.Current(ctx, actor)
	require.NoError(t, err)
	require.NotNil(t, st.Branch)
	assert.Equal(t, "A", st.Branch.Code)
	assert.False(t, st.Fixed)
}

func TestSelector_DeactivatedSelectionIsDropped(t *testing.T) {
	s, a, _ := newTestSelector()
	ctx := context.Background()
	actor := admin("sess-1")

	_, err := s.Select(ctx, actor, a.ID.String())
	require.NoError(t, err)
	require.NoError(t, s.ConfirmSelection(ctx, actor, a.ID.String()))

	// The branch is closed after the administrator picked it.
	repo := s.repo.(*memRepo)
	closed := repo.branches[a.ID]
	closed.IsActive = false
	repo.branches[a.ID] = closed

	err = s.ConfirmSelection(ctx, actor, a.ID.String())
	assert.True(t, apperror.IsNoActiveBranch(err))

	got, err := s.EffectiveBranch(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, got, "stale selection is cleared")
}

func TestSelector_CurrentClearsMissingSelection(t *testing.T) {
	s, _, _ := newTestSelector()
	ctx := context.Background()
	actor := admin("sess-1")

	require.NoError(t, s.store.Set(ctx, actor.SessionID, id.New().String()))

	st, err := s.Current(ctx, actor)
	require.NoError(t, err)
	assert.False(t, st.Selected)
	assert.Empty(t, st.BranchID)

	got, err := s.EffectiveBranch(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelector_ConfirmIgnoresNonAdmins(t *testing.T) {
	s, _, closed := newTestSelector()
	employee := &appctx.UserContext{UserID: id.New().String(), Role: "Employee", BranchID: closed.ID.String()}

	assert.NoError(t, s.ConfirmSelection(context.Background(), employee, closed.ID.String()))
	assert.NoError(t, s.ConfirmSelection(context.Background(), admin("sess-1"), ""))
}

func TestSelector_Unauthenticated(t *testing.T) {
	s, a, _ := newTestSelector()

	_, err := s.EffectiveBranch(context.Background(), nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = s.Select(context.Background(), nil, a.ID.String())
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}
