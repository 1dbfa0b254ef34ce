package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchpos/internal/core/security"
	"branchpos/internal/core/tenancy"
	"branchpos/pkg/logger"
)

func newTestBootstrapper(store BootstrapStore, cfg BootstrapConfig) (*Bootstrapper, *fakeRunner, *fakeTxManager, *countingRecorder) {
	runner := &fakeRunner{}
	txm := &fakeTxManager{}
	rec := &countingRecorder{}
	b := NewBootstrapper(runner, txm, store, cfg, logger.NewNop(), rec)
	b.hash = func(p string) (string, error) { return "hashed:" + p, nil }
	return b, runner, txm, rec
}

func TestBootstrap_SeedsEmptyDatabase(t *testing.T) {
	store := newMemStore()
	b, runner, txm, rec := newTestBootstrapper(store, DefaultBootstrapConfig())

	rep, err := b.EnsureDefaults(context.Background())
	require.NoError(t, err)

	catalog := len(Catalog())
	assert.Equal(t, 3, rep.RolesCreated)
	assert.Equal(t, len(security.Actions), rep.ActionsCreated)
	assert.Equal(t, catalog, rep.ResourcesCreated)
	assert.True(t, rep.BranchCreated)
	assert.Equal(t, 3*catalog*len(security.Actions), rep.DefaultsInserted)
	assert.False(t, rep.AdminSeeded)

	assert.Equal(t, []tenancy.Params{tenancy.SystemParams()}, runner.params)
	assert.Equal(t, 1, txm.calls)
	assert.Equal(t, []string{"ok"}, rec.runs)

	d, _, ok := store.defaultFor(security.RoleManager, "orders.page", security.ActionDelete)
	require.True(t, ok)
	assert.Equal(t, security.Deny(), d)

	d, _, ok = store.defaultFor(security.RoleAdmin, "audit_log.page", security.ActionDelete)
	require.True(t, ok)
	assert.Equal(t, security.Allow(security.ScopeAll), d)
}

func TestBootstrap_Idempotent(t *testing.T) {
	store := newMemStore()
	b, _, _, _ := newTestBootstrapper(store, DefaultBootstrapConfig())
	ctx := context.Background()

	_, err := b.EnsureDefaults(ctx)
	require.NoError(t, err)
	rolesAfterFirst := len(store.roles)
	defaultsAfterFirst := len(store.defaults)

	rep, err := b.EnsureDefaults(ctx)
	require.NoError(t, err)

	assert.Equal(t, Report{}, rep)
	assert.Len(t, store.roles, rolesAfterFirst)
	assert.Len(t, store.defaults, defaultsAfterFirst)
	assert.Len(t, store.branches, 1)
}

func TestBootstrap_KeepsManualEdits(t *testing.T) {
	store := newMemStore()
	b, _, _, _ := newTestBootstrapper(store, DefaultBootstrapConfig())
	ctx := context.Background()

	_, err := b.EnsureDefaults(ctx)
	require.NoError(t, err)

	_, triple, ok := store.defaultFor(security.RoleEmployee, "reports.page", security.ActionView)
	require.True(t, ok)
	store.defaults[triple] = security.Allow(security.ScopeOwn)

	_, err = b.EnsureDefaults(ctx)
	require.NoError(t, err)

	assert.Equal(t, security.Allow(security.ScopeOwn), store.defaults[triple])
}

func TestBootstrap_ReusesAliasedRole(t *testing.T) {
	store := newMemStore()
	legacy, _ := store.CreateRole(context.Background(), "Manger")
	b, _, _, _ := newTestBootstrapper(store, DefaultBootstrapConfig())

	rep, err := b.EnsureDefaults(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, rep.RolesCreated)
	assert.Len(t, store.roles, 3)

	_, triple, ok := store.defaultFor(security.RoleManager, "orders.page", security.ActionView)
	require.True(t, ok)
	assert.Equal(t, legacy.ID, triple.RoleID)
}

func TestBootstrap_AdminUser(t *testing.T) {
	t.Run("skipped without password", func(t *testing.T) {
		store := newMemStore()
		cfg := DefaultBootstrapConfig()
		cfg.AdminUsername = "root"
		b, _, _, _ := newTestBootstrapper(store, cfg)

		rep, err := b.EnsureDefaults(context.Background())
		require.NoError(t, err)

		assert.False(t, rep.AdminSeeded)
		assert.Empty(t, store.users)
	})

	t.Run("created then updated by username", func(t *testing.T) {
		store := newMemStore()
		cfg := DefaultBootstrapConfig()
		cfg.AdminUsername = "root"
		cfg.AdminPassword = "s3cret"
		b, _, _, _ := newTestBootstrapper(store, cfg)
		ctx := context.Background()

		rep, err := b.EnsureDefaults(ctx)
		require.NoError(t, err)
		assert.True(t, rep.AdminCreated)

		first := store.users["root"]
		assert.Equal(t, "hashed:s3cret", first.PasswordHash)
		assert.Equal(t, store.branches[0].id, first.BranchID)

		b.cfg.AdminPassword = "rotated"
		rep, err = b.EnsureDefaults(ctx)
		require.NoError(t, err)

		assert.True(t, rep.AdminSeeded)
		assert.False(t, rep.AdminCreated)
		assert.Len(t, store.users, 1)
		assert.Equal(t, first.ID, store.users["root"].ID)
		assert.Equal(t, "hashed:rotated", store.users["root"].PasswordHash)
	})

	t.Run("unknown branch code fails", func(t *testing.T) {
		store := newMemStore()
		cfg := DefaultBootstrapConfig()
		cfg.AdminUsername = "root"
		cfg.AdminPassword = "s3cret"
		cfg.AdminBranchCode = "NOPE"
		b, _, _, rec := newTestBootstrapper(store, cfg)

		_, err := b.EnsureDefaults(context.Background())
		require.Error(t, err)
		assert.Equal(t, []string{"failed"}, rec.runs)
	})
}

func TestBootstrap_FailurePropagates(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("disk full")
	b, _, _, rec := newTestBootstrapper(store, DefaultBootstrapConfig())

	rep, err := b.EnsureDefaults(context.Background())

	require.ErrorIs(t, err, store.insertErr)
	assert.Equal(t, Report{}, rep)
	assert.Equal(t, []string{"failed"}, rec.runs)
}
