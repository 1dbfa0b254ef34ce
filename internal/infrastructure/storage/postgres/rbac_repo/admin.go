package rbac_repo

import (
	"context"
	"fmt"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/core/tenancy"
	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/storage/postgres"
)

// Compile-time check that AdminRepo implements rbac.AdminStore.
var _ rbac.AdminStore = (*AdminRepo)(nil)

// AdminRepo writes user overrides and role defaults.
type AdminRepo struct{}

// NewAdminRepo creates a new admin repository.
func NewAdminRepo() *AdminRepo {
	return &AdminRepo{}
}

// UpsertUserOverride implements rbac.AdminStore.
func (r *AdminRepo) UpsertUserOverride(ctx context.Context, userID id.ID, resourceKey, actionKey string, d security.Decision) error {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_permissions (id, user_id, resource_id, action_id, effect, scope)
		SELECT $1, $2, r.id, a.id, $5, $6
		FROM permission_resources r, permission_actions a
		WHERE r.resource_key = $3 AND a.action_key = $4
		ON CONFLICT (user_id, resource_id, action_id)
		DO UPDATE SET effect = EXCLUDED.effect, scope = EXCLUDED.scope, updated_at = now()
	`

	tag, err := q.Exec(ctx, query, id.New(), userID, resourceKey, actionKey, string(d.Effect), string(d.Scope))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("user", userID.String()).WithCause(err)
		}
		return fmt.Errorf("upsert user override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notInCatalog(resourceKey, actionKey)
	}

	return notifyChanged(ctx, q, "user:"+userID.String())
}

// DeleteUserOverride implements rbac.AdminStore.
func (r *AdminRepo) DeleteUserOverride(ctx context.Context, userID id.ID, resourceKey, actionKey string) error {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		DELETE FROM user_permissions up
		USING permission_resources r, permission_actions a
		WHERE up.user_id = $1
		  AND up.resource_id = r.id AND r.resource_key = $2
		  AND up.action_id = a.id AND a.action_key = $3
	`

	if _, err := q.Exec(ctx, query, userID, resourceKey, actionKey); err != nil {
		return fmt.Errorf("delete user override: %w", err)
	}

	return notifyChanged(ctx, q, "user:"+userID.String())
}

// UpsertRoleDefault implements rbac.AdminStore. The role is matched through all
// of its aliases.
func (r *AdminRepo) UpsertRoleDefault(ctx context.Context, role security.Role, resourceKey, actionKey string, d security.Decision) error {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO role_permissions (id, role_id, resource_id, action_id, effect, scope)
		SELECT $1, ro.id, r.id, a.id, $5, $6
		FROM (
			SELECT id FROM roles WHERE lower(name) = ANY($2::text[]) ORDER BY created_at LIMIT 1
		) ro, permission_resources r, permission_actions a
		WHERE r.resource_key = $3 AND a.action_key = $4
		ON CONFLICT (role_id, resource_id, action_id)
		DO UPDATE SET effect = EXCLUDED.effect, scope = EXCLUDED.scope, updated_at = now()
	`

	tag, err := q.Exec(ctx, query, id.New(), security.RoleAliases(role), resourceKey, actionKey, string(d.Effect), string(d.Scope))
	if err != nil {
		return fmt.Errorf("upsert role default: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notInCatalog(resourceKey, actionKey).WithDetail("role", role)
	}

	return notifyChanged(ctx, q, "role:"+string(role))
}

// notifyChanged tells every instance to purge cached decisions. Inside a
// transaction the notification is delivered on commit only.
func notifyChanged(ctx context.Context, q tenancy.Querier, payload string) error {
	if _, err := q.Exec(ctx, `SELECT pg_notify($1, $2)`, rbac.PolicyChangedChannel, payload); err != nil {
		return fmt.Errorf("notify policy change: %w", err)
	}
	return nil
}

func notInCatalog(resourceKey, actionKey string) *apperror.AppError {
	return apperror.NewNotFound("permission", resourceKey+":"+actionKey)
}
