package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchpos/internal/core/apperror"
	appctx "branchpos/internal/core/context"
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/core/tenancy"
	"branchpos/internal/domain"
	"branchpos/internal/domain/branch"
	"branchpos/pkg/logger"
)

// staticResolver returns one decision per role for every triple.
type staticResolver map[string]map[security.Action]security.Decision

func (r staticResolver) Resolve(ctx context.Context, userID, role, resourceKey, actionKey string) (security.Decision, error) {
	if d, ok := r[role][security.Action(actionKey)]; ok {
		return d, nil
	}
	return security.Deny(), nil
}

// memRepo applies scope filters the way SQL predicates would.
type memRepo struct {
	rows  map[id.ID]*Product
	scope []security.Filter
	calls int
}

func newMemRepo(rows ...*Product) *memRepo {
	r := &memRepo{rows: make(map[id.ID]*Product)}
	for _, p := range rows {
		r.rows[p.ID] = p
	}
	return r
}

func matches(p *Product, f security.Filter) bool {
	if f.BranchID != "" && p.BranchID.String() != f.BranchID {
		return false
	}
	if f.OwnerID != "" && p.OwnerID.String() != f.OwnerID {
		return false
	}
	return true
}

func (r *memRepo) List(ctx context.Context, scope security.Filter, f domain.ListFilter) (domain.ListResult[*Product], error) {
	r.calls++
	r.scope = append(r.scope, scope)
	var out []*Product
	for _, p := range r.rows {
		if matches(p, scope) {
			out = append(out, p)
		}
	}
	return domain.ListResult[*Product]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit}, nil
}

func (r *memRepo) GetByID(ctx context.Context, productID id.ID, scope security.Filter) (*Product, error) {
	r.calls++
	r.scope = append(r.scope, scope)
	p, ok := r.rows[productID]
	if !ok || !matches(p, scope) {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) Create(ctx context.Context, p *Product) error {
	r.calls++
	r.rows[p.ID] = p
	return nil
}

func (r *memRepo) Update(ctx context.Context, p *Product, scope security.Filter) error {
	r.calls++
	r.scope = append(r.scope, scope)
	if _, err := r.GetByID(ctx, p.ID, scope); err != nil {
		return err
	}
	p.Version++
	r.rows[p.ID] = p
	return nil
}

func (r *memRepo) Delete(ctx context.Context, productID id.ID, scope security.Filter) error {
	r.calls++
	r.scope = append(r.scope, scope)
	if _, err := r.GetByID(ctx, productID, scope); err != nil {
		return err
	}
	delete(r.rows, productID)
	return nil
}

type inlineTx struct{}

func (inlineTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (inlineTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var testPolicy = staticResolver{
	"Admin": {
		security.ActionView: security.Allow(security.ScopeAll), security.ActionCreate: security.Allow(security.ScopeAll),
		security.ActionUpdate: security.Allow(security.ScopeAll), security.ActionDelete: security.Allow(security.ScopeAll),
	},
	"Manager": {
		security.ActionView: security.Allow(security.ScopeBranch), security.ActionCreate: security.Allow(security.ScopeBranch),
		security.ActionUpdate: security.Allow(security.ScopeBranch),
	},
	"Employee": {
		security.ActionView: security.Allow(security.ScopeBranch),
	},
	"Cashier": {
		security.ActionView: security.Allow(security.ScopeOwn), security.ActionUpdate: security.Allow(security.ScopeOwn),
	},
}

func scoped(p tenancy.Params) context.Context {
	return tenancy.With(context.Background(), tenancy.New(p, nil))
}

func product(branchID, ownerID id.ID, sku string) *Product {
	p := NewProduct(sku, "Item "+sku, decimal.NewFromInt(10))
	p.Assign(branchID, ownerID)
	return p
}

func newTestService(repo Repository) *Service {
	return NewService(repo, security.NewGuard(testPolicy), inlineTx{})
}

func TestList_EmployeeSeesOnlyHomeBranch(t *testing.T) {
	branchA, branchB, owner := id.New(), id.New(), id.New()
	repo := newMemRepo(product(branchA, owner, "A1"), product(branchA, owner, "A2"), product(branchB, owner, "B1"))
	svc := newTestService(repo)

	ctx := scoped(tenancy.Params{BranchID: branchA.String(), UserID: id.New().String(), Role: "Employee"})

	res, err := svc.List(ctx, ListRequest{BranchID: branchB.String()})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	for _, p := range res.Items {
		assert.Equal(t, branchA, p.BranchID)
	}
	assert.Equal(t, security.Filter{BranchID: branchA.String()}, repo.scope[0])
}

func TestList_OwnScopePinsOwner(t *testing.T) {
	branchA, me, other := id.New(), id.New(), id.New()
	repo := newMemRepo(product(branchA, me, "M1"), product(branchA, other, "O1"))
	svc := newTestService(repo)

	ctx := scoped(tenancy.Params{BranchID: branchA.String(), UserID: me.String(), Role: "Cashier"})

	res, err := svc.List(ctx, ListRequest{OwnerID: other.String()})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, me, res.Items[0].OwnerID)
}

func TestList_AdminAllHonoursRequestedBranch(t *testing.T) {
	branchA, branchB, owner := id.New(), id.New(), id.New()
	repo := newMemRepo(product(branchA, owner, "A1"), product(branchB, owner, "B1"))
	svc := newTestService(repo)

	ctx := scoped(tenancy.Params{UserID: id.New().String(), Role: "Admin", IsAdmin: true})

	res, err := svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)

	res, err = svc.List(ctx, ListRequest{BranchID: branchB.String()})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, branchB, res.Items[0].BranchID)
}

func TestList_BranchScopeWithoutBranchFailsClosed(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	ctx := scoped(tenancy.Params{UserID: id.New().String(), Role: "Manager"})

	_, err := svc.List(ctx, ListRequest{})
	assert.True(t, apperror.IsNoActiveBranch(err))
	assert.Zero(t, repo.calls)
}

func TestDelete_ManagerRejectedBeforeStorage(t *testing.T) {
	branchA, owner := id.New(), id.New()
	p := product(branchA, owner, "A1")
	repo := newMemRepo(p)
	svc := newTestService(repo)

	ctx := scoped(tenancy.Params{BranchID: branchA.String(), UserID: owner.String(), Role: "Manager"})

	err := svc.Delete(ctx, p.ID)

	assert.True(t, apperror.IsForbidden(err))
	assert.Zero(t, repo.calls)
	assert.Contains(t, repo.rows, p.ID)
}

func TestCreate_AdminNeedsSelectedBranch(t *testing.T) {
	branchA, branchB := id.New(), id.New()
	repo := newMemRepo()
	svc := newTestService(repo)

	branches := &branchRepo{branch.Branch{ID: branchA, Code: "A", IsActive: true}}
	selector := branch.NewSelector(branches, branch.NewMemoryStore(), logger.NewNop())
	actor := &appctx.UserContext{UserID: id.New().String(), Role: "Admin", IsAdmin: true, SessionID: "sess-1"}

	paramsFor := func() tenancy.Params {
		bid, err := selector.EffectiveBranch(context.Background(), actor)
		require.NoError(t, err)
		return tenancy.Params{BranchID: bid, UserID: actor.UserID, Role: actor.Role, IsAdmin: true}
	}

	payload := NewProduct("sku-1", "Coffee", decimal.RequireFromString("3.50"))
	payload.Assign(branchB, id.New())

	err := svc.Create(scoped(paramsFor()), payload)
	require.True(t, apperror.IsNoActiveBranch(err), "got %v", err)
	assert.Empty(t, repo.rows)

	_, err = selector.Select(context.Background(), actor, branchA.String())
	require.NoError(t, err)

	err = svc.Create(scoped(paramsFor()), payload)
	require.NoError(t, err)

	stored := repo.rows[payload.ID]
	require.NotNil(t, stored)
	assert.Equal(t, branchA, stored.BranchID)
	assert.Equal(t, actor.UserID, stored.OwnerID.String())
	assert.Equal(t, "SKU-1", stored.SKU)
}

func TestCreate_RejectsInvalidProduct(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := scoped(tenancy.Params{BranchID: id.New().String(), UserID: id.New().String(), Role: "Manager"})

	err := svc.Create(ctx, NewProduct("X", "Bad", decimal.NewFromInt(-1)))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = svc.Create(ctx, NewProduct("X", "Bad", decimal.RequireFromString("1.999")))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, repo.rows)
}

func TestUpdate_ScopedToActiveBranch(t *testing.T) {
	branchA, branchB, owner := id.New(), id.New(), id.New()
	inA := product(branchA, owner, "A1")
	inB := product(branchB, owner, "B1")
	repo := newMemRepo(inA, inB)
	svc := newTestService(repo)

	ctx := scoped(tenancy.Params{BranchID: branchA.String(), UserID: owner.String(), Role: "Manager"})
	name := "Renamed"

	updated, err := svc.Update(ctx, inA.ID, UpdateInput{Name: &name, Version: 1})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, branchA, updated.BranchID)

	_, err = svc.Update(ctx, inB.ID, UpdateInput{Name: &name})
	assert.True(t, apperror.IsNotFound(err), "rows of other branches look missing")

	_, err = svc.Update(ctx, inA.ID, UpdateInput{Name: &name, Version: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
}

func TestUpdate_OwnScopeCannotTouchOthersRows(t *testing.T) {
	branchA, me, other := id.New(), id.New(), id.New()
	theirs := product(branchA, other, "T1")
	repo := newMemRepo(theirs)
	svc := newTestService(repo)

	ctx := scoped(tenancy.Params{BranchID: branchA.String(), UserID: me.String(), Role: "Cashier"})
	name := "Mine now"

	_, err := svc.Update(ctx, theirs.ID, UpdateInput{Name: &name})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, security.Filter{BranchID: branchA.String(), OwnerID: me.String()}, repo.scope[0])
}

func TestOperationsOutsideScopeAreUnauthorized(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, err := svc.List(context.Background(), ListRequest{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

type branchRepo []branch.Branch

func (r *branchRepo) GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error) {
	for _, b := range *r {
		if b.ID == branchID {
			cp := b
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("branch", branchID.String())
}

func (r *branchRepo) ListActive(ctx context.Context) ([]branch.Branch, error) {
	return *r, nil
}
