package rbac

import (
	"context"

	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
)

// PolicyStore reads the stored policy for the resolver.
type PolicyStore interface {
	// LookupRules loads catalog existence flags and both rule layers for key
	// in one round trip. Missing rows are reported through PolicyRows, not errors.
	LookupRules(ctx context.Context, key PolicyKey) (PolicyRows, error)
}

// AdminStore edits stored rules. Keys are catalog keys; an unknown key is a
// NotFound error.
type AdminStore interface {
	// UpsertUserOverride sets the override for (user, resource, action).
	UpsertUserOverride(ctx context.Context, userID id.ID, resourceKey, actionKey string, d security.Decision) error

	// DeleteUserOverride removes the override. Missing rows are not an error.
	DeleteUserOverride(ctx context.Context, userID id.ID, resourceKey, actionKey string) error

	// UpsertRoleDefault sets the default for (role, resource, action).
	UpsertRoleDefault(ctx context.Context, role security.Role, resourceKey, actionKey string, d security.Decision) error
}

// BootstrapStore is the storage surface of Bootstrapper. All methods run on the
// ambient scope and are insert-if-missing.
type BootstrapStore interface {
	// ListRoles returns every stored role.
	ListRoles(ctx context.Context) ([]Role, error)

	// CreateRole inserts a role unless one with the same name (ignoring case) exists,
	// and returns the stored row.
	CreateRole(ctx context.Context, name string) (Role, error)

	// EnsureAction inserts the action if missing. Reports whether it was created.
	EnsureAction(ctx context.Context, key security.Action) (bool, error)

	// EnsureResource inserts the resource if its key is missing. Reports whether it
	// was created. Existing rows are left untouched.
	EnsureResource(ctx context.Context, r CatalogEntry) (bool, error)

	// EnsureBranch inserts a branch with code if no active branch exists.
	// Reports whether it was created.
	EnsureBranch(ctx context.Context, code, name string) (bool, error)

	// BranchByCode returns the id of the active branch with code.
	BranchByCode(ctx context.Context, code string) (id.ID, error)

	// FirstActiveBranch returns the oldest active branch.
	FirstActiveBranch(ctx context.Context) (id.ID, error)

	// ListActiveResources returns active resources.
	ListActiveResources(ctx context.Context) ([]Resource, error)

	// ListActiveActions returns active actions.
	ListActiveActions(ctx context.Context) ([]Action, error)

	// ExistingRoleDefaults returns every (role, resource, action) with a stored default.
	ExistingRoleDefaults(ctx context.Context) (map[Triple]struct{}, error)

	// InsertRoleDefaults inserts rows, skipping conflicts. Returns the number inserted.
	InsertRoleDefaults(ctx context.Context, rows []RoleDefault) (int, error)

	// UpsertAdminUser creates or updates the user with u.Username.
	// Reports whether the user was created.
	UpsertAdminUser(ctx context.Context, u AdminUser) (bool, error)
}
