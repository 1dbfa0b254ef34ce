package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"branchpos/internal/core/security"
)

func TestDefaultDecision(t *testing.T) {
	page := func(base string) CatalogEntry { return CatalogEntry{Key: base + ".page", Type: security.ResourcePage} }
	menu := func(key string) CatalogEntry { return CatalogEntry{Key: key, Type: security.ResourceMenu} }

	allowBranch := security.Allow(security.ScopeBranch)
	deny := security.Deny()

	tests := []struct {
		name   string
		role   security.Role
		res    CatalogEntry
		action security.Action
		want   security.Decision
	}{
		{"admin any", security.RoleAdmin, page("audit_log"), security.ActionDelete, security.Allow(security.ScopeAll)},
		{"admin menu", security.RoleAdmin, menu("roles.menu"), security.ActionView, security.Allow(security.ScopeAll)},

		{"manager restricted view", security.RoleManager, page("permissions"), security.ActionView, deny},
		{"manager restricted menu", security.RoleManager, menu("roles.menu"), security.ActionAccess, deny},
		{"manager audit create", security.RoleManager, page("audit_log"), security.ActionCreate, deny},
		{"manager delete", security.RoleManager, page("orders"), security.ActionDelete, deny},
		{"manager view", security.RoleManager, page("reports"), security.ActionView, allowBranch},
		{"manager view menu", security.RoleManager, menu("stock.menu"), security.ActionView, allowBranch},
		{"manager create menu", security.RoleManager, menu("stock.menu"), security.ActionCreate, deny},
		{"manager update page", security.RoleManager, page("stock"), security.ActionUpdate, allowBranch},
		{"manager unknown resource", security.RoleManager, page("loyalty"), security.ActionCreate, allowBranch},

		{"employee delete", security.RoleEmployee, page("orders"), security.ActionDelete, deny},
		{"employee view operational", security.RoleEmployee, page("payment_methods"), security.ActionView, allowBranch},
		{"employee access pos menu", security.RoleEmployee, menu("pos.queue.menu"), security.ActionAccess, allowBranch},
		{"employee view back office", security.RoleEmployee, page("reports"), security.ActionView, deny},
		{"employee create order", security.RoleEmployee, page("orders"), security.ActionCreate, allowBranch},
		{"employee update shift", security.RoleEmployee, page("shifts"), security.ActionUpdate, allowBranch},
		{"employee create product", security.RoleEmployee, page("products"), security.ActionCreate, deny},
		{"employee create pos menu", security.RoleEmployee, menu("pos.orders.menu"), security.ActionCreate, deny},
		{"employee restricted", security.RoleEmployee, page("permissions"), security.ActionView, deny},

		{"unknown role", security.Role("Guest"), page("orders"), security.ActionView, deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultDecision(tt.role, tt.res, tt.action))
		})
	}
}

func TestDefaultDecision_DeleteNeverAllowedBelowAdmin(t *testing.T) {
	for _, res := range Catalog() {
		assert.Equal(t, security.Deny(), DefaultDecision(security.RoleManager, res, security.ActionDelete), res.Key)
		assert.Equal(t, security.Deny(), DefaultDecision(security.RoleEmployee, res, security.ActionDelete), res.Key)
		assert.Equal(t, security.Allow(security.ScopeAll), DefaultDecision(security.RoleAdmin, res, security.ActionDelete), res.Key)
	}
}

func TestDefaultRules_AreNormalized(t *testing.T) {
	for i, r := range DefaultRules {
		assert.Equal(t, r.Decision.Normalize(), r.Decision, "rule %d", i)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassRestricted|ClassMenu, Classify("audit_log.menu", security.ResourceMenu))
	assert.Equal(t, ClassOperational|ClassOperationalWrite, Classify("orders.page", security.ResourcePage))
	assert.Equal(t, ClassOperational|ClassMenu, Classify("pos.tables.menu", security.ResourceMenu))
	assert.Equal(t, Class(0), Classify("reports.page", security.ResourcePage))
}

func TestPlanDefaults_SkipsExistingAndUnknownRoles(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	manager, _ := s.CreateRole(ctx, "manger")
	_, _ = s.CreateRole(ctx, "Guest")
	_, _ = s.EnsureResource(ctx, CatalogEntry{Key: "orders.page", Type: security.ResourcePage})
	_, _ = s.EnsureAction(ctx, security.ActionView)
	_, _ = s.EnsureAction(ctx, security.ActionDelete)

	existing := map[Triple]struct{}{
		{RoleID: manager.ID, ResourceID: s.resources[0].ID, ActionID: s.actions[0].ID}: {},
	}

	plan := PlanDefaults(s.roles, s.resources, s.actions, existing)

	if assert.Len(t, plan, 1) {
		assert.Equal(t, s.actions[1].ID, plan[0].ActionID)
		assert.Equal(t, security.Deny(), plan[0].Decision)
	}
}
