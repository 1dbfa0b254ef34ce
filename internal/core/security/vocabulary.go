// Package security provides the RBAC vocabulary, permission decisions and the
// scope rules that narrow data access to the authenticated actor.
package security

import (
	"sort"
	"strings"
)

// Role is one of the three logical roles.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleManager, RoleEmployee}

// roleAliases maps lowercased spellings found in historical data to canonical roles.
var roleAliases = map[string]Role{
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"adminstrator":  RoleAdmin,
	"admn":          RoleAdmin,
	"manager":       RoleManager,
	"manger":        RoleManager,
	"managr":        RoleManager,
	"employee":      RoleEmployee,
	"employe":       RoleEmployee,
	"employer":      RoleEmployee,
	"staff":         RoleEmployee,
}

// NormalizeRole maps a raw role name to its canonical form.
func NormalizeRole(name string) (Role, bool) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// RoleAliases returns every lowercased spelling that normalizes to r.
func RoleAliases(r Role) []string {
	var out []string
	for alias, canon := range roleAliases {
		if canon == r {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Action is a permission verb.
type Action string

const (
	ActionAccess Action = "access"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists the fixed action vocabulary.
var Actions = []Action{ActionAccess, ActionView, ActionCreate, ActionUpdate, ActionDelete}

// IsRead reports whether the action only reads.
func (a Action) IsRead() bool {
	return a == ActionAccess || a == ActionView
}

// ResourceType classifies a protectable unit.
type ResourceType string

const (
	ResourcePage    ResourceType = "page"
	ResourceMenu    ResourceType = "menu"
	ResourceAPI     ResourceType = "api"
	ResourceFeature ResourceType = "feature"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourcePage, ResourceMenu, ResourceAPI, ResourceFeature:
		return true
	}
	return false
}

// Effect is the binary outcome of a rule.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Scope is the breadth of rows a grant applies to.
type Scope string

const (
	ScopeNone   Scope = "none"
	ScopeOwn    Scope = "own"
	ScopeBranch Scope = "branch"
	ScopeAll    Scope = "all"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeNone, ScopeOwn, ScopeBranch, ScopeAll:
		return true
	}
	return false
}

// Decision is the effective policy for one (actor, resource, action).
// A normalized decision is either deny/none or allow with own, branch or all.
type Decision struct {
	Effect Effect `json:"effect"`
	Scope  Scope  `json:"scope"`
}

// Deny is the implicit decision when no rule applies.
func Deny() Decision {
	return Decision{Effect: EffectDeny, Scope: ScopeNone}
}

// Allow builds an allow decision for scope.
func Allow(scope Scope) Decision {
	return Decision{Effect: EffectAllow, Scope: scope}
}

// Normalize collapses anything that is not a usable grant into Deny.
func (d Decision) Normalize() Decision {
	if d.Effect != EffectAllow {
		return Deny()
	}
	switch d.Scope {
	case ScopeOwn, ScopeBranch, ScopeAll:
		return d
	}
	return Deny()
}

// Allowed reports whether the decision grants access to at least some rows.
func (d Decision) Allowed() bool {
	n := d.Normalize()
	return n.Effect == EffectAllow
}

func (d Decision) String() string {
	return string(d.Effect) + "/" + string(d.Scope)
}
