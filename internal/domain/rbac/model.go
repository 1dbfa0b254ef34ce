// Package rbac resolves role-based permission decisions and seeds the default
// permission matrix.
package rbac

import (
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
)

// PolicyChangedChannel is the NOTIFY channel written by committed policy edits
// and listened on by decision caches.
const PolicyChangedChannel = "policy_changed"

// Role is a stored role row. Name may be any alias of a canonical role.
type Role struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Resource is a protectable unit (page, menu, api, feature).
type Resource struct {
	ID          id.ID                 `db:"id" json:"id"`
	Key         string                `db:"resource_key" json:"key"`
	Type        security.ResourceType `db:"resource_type" json:"type"`
	Description string                `db:"description" json:"description"`
	IsActive    bool                  `db:"is_active" json:"isActive"`
}

// Action is a stored permission verb.
type Action struct {
	ID       id.ID           `db:"id" json:"id"`
	Key      security.Action `db:"action_key" json:"key"`
	IsActive bool            `db:"is_active" json:"isActive"`
}

// PolicyKey identifies the decision being asked for.
// Role is the canonical role name, or empty when the raw role is unknown.
type PolicyKey struct {
	UserID      string
	Role        security.Role
	ResourceKey string
	ActionKey   string
}

// PolicyRows is what storage knows about one PolicyKey.
type PolicyRows struct {
	ResourceKnown bool
	ActionKnown   bool
	RoleKnown     bool

	// Override is the user-specific rule, nil when absent.
	Override *security.Decision
	// Default is the role default, nil when absent.
	Default *security.Decision
}

// Source tells which layer produced a decision.
type Source string

const (
	SourceOverride Source = "override"
	SourceRole     Source = "role"
	SourceImplicit Source = "implicit"
)

// Explanation is a decision with its provenance.
type Explanation struct {
	Decision security.Decision `json:"decision"`
	Source   Source            `json:"source"`
}

// Triple identifies one role default row.
type Triple struct {
	RoleID     id.ID
	ResourceID id.ID
	ActionID   id.ID
}

// RoleDefault is a role_permissions row to insert.
type RoleDefault struct {
	Triple
	Decision security.Decision
}

// AdminUser is the bootstrap administrator upserted by username.
type AdminUser struct {
	ID           id.ID
	Username     string
	DisplayName  string
	PasswordHash string
	RoleID       id.ID
	BranchID     id.ID
}
