package rbac

import (
	"strings"

	"branchpos/internal/core/security"
)

// Class is a set of resource properties the default rules match on.
type Class uint8

const (
	// ClassRestricted marks administration resources: permissions, roles, audit log.
	ClassRestricted Class = 1 << iota
	// ClassMenu marks menu entries.
	ClassMenu
	// ClassOperational marks what an employee may see on the shop floor.
	ClassOperational
	// ClassOperationalWrite marks what an employee may create and edit.
	ClassOperationalWrite
)

var (
	restrictedBases = set("permissions", "roles", "audit_log")

	operationalBases = set(
		"orders", "products", "queue", "shifts", "payments", "category",
		"delivery", "discounts", "payment_methods", "tables", "shop_profile",
	)

	operationalWriteBases = set("orders", "queue", "payments", "shifts")
)

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// Classify derives the rule classes of a resource from its key and type.
func Classify(key string, typ security.ResourceType) Class {
	var c Class
	base := baseName(key)

	if _, ok := restrictedBases[base]; ok {
		c |= ClassRestricted
	}
	if typ == security.ResourceMenu {
		c |= ClassMenu
	}
	if _, ok := operationalBases[base]; ok {
		c |= ClassOperational
	}
	if typ == security.ResourceMenu && strings.HasPrefix(key, "pos.") {
		c |= ClassOperational
	}
	if _, ok := operationalWriteBases[base]; ok && typ != security.ResourceMenu {
		c |= ClassOperationalWrite
	}
	return c
}

// DefaultRule is one row of the default permission table.
// Empty Actions matches every action; Requires lists classes that must all be set.
type DefaultRule struct {
	Role     security.Role
	Actions  []security.Action
	Requires Class
	Decision security.Decision
}

func (r DefaultRule) matches(role security.Role, c Class, a security.Action) bool {
	if r.Role != role {
		return false
	}
	if c&r.Requires != r.Requires {
		return false
	}
	if len(r.Actions) == 0 {
		return true
	}
	for _, x := range r.Actions {
		if x == a {
			return true
		}
	}
	return false
}

var (
	reads  = []security.Action{security.ActionView, security.ActionAccess}
	writes = []security.Action{security.ActionCreate, security.ActionUpdate}
	remove = []security.Action{security.ActionDelete}
)

// DefaultRules is evaluated top to bottom; the first matching row wins.
var DefaultRules = []DefaultRule{
	{Role: security.RoleAdmin, Decision: security.Allow(security.ScopeAll)},

	{Role: security.RoleManager, Requires: ClassRestricted, Decision: security.Deny()},
	{Role: security.RoleManager, Actions: remove, Decision: security.Deny()},
	{Role: security.RoleManager, Actions: reads, Decision: security.Allow(security.ScopeBranch)},
	{Role: security.RoleManager, Requires: ClassMenu, Decision: security.Deny()},
	{Role: security.RoleManager, Decision: security.Allow(security.ScopeBranch)},

	{Role: security.RoleEmployee, Actions: remove, Decision: security.Deny()},
	{Role: security.RoleEmployee, Actions: reads, Requires: ClassOperational, Decision: security.Allow(security.ScopeBranch)},
	{Role: security.RoleEmployee, Actions: writes, Requires: ClassOperationalWrite, Decision: security.Allow(security.ScopeBranch)},
	{Role: security.RoleEmployee, Decision: security.Deny()},
}

// DefaultDecision evaluates DefaultRules for one triple. No match is Deny.
func DefaultDecision(role security.Role, res CatalogEntry, action security.Action) security.Decision {
	c := Classify(res.Key, res.Type)
	for _, r := range DefaultRules {
		if r.matches(role, c, action) {
			return r.Decision
		}
	}
	return security.Deny()
}

// PlanDefaults returns the role default rows missing from existing.
// Roles whose name is not a known alias are skipped.
func PlanDefaults(roles []Role, resources []Resource, actions []Action, existing map[Triple]struct{}) []RoleDefault {
	var out []RoleDefault
	for _, role := range roles {
		canon, ok := security.NormalizeRole(role.Name)
		if !ok {
			continue
		}
		for _, res := range resources {
			entry := CatalogEntry{Key: res.Key, Type: res.Type}
			for _, a := range actions {
				t := Triple{RoleID: role.ID, ResourceID: res.ID, ActionID: a.ID}
				if _, ok := existing[t]; ok {
					continue
				}
				out = append(out, RoleDefault{
					Triple:   t,
					Decision: DefaultDecision(canon, entry, a.Key),
				})
			}
		}
	}
	return out
}
