package rbac_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/storage/postgres"
)

// Compile-time check that BootstrapRepo implements rbac.BootstrapStore.
var _ rbac.BootstrapStore = (*BootstrapRepo)(nil)

// insertBatchSize bounds the VALUES list of one role default insert.
const insertBatchSize = 500

// BootstrapRepo seeds the permission vocabulary. Every write is insert-if-missing.
type BootstrapRepo struct{}

// NewBootstrapRepo creates a new bootstrap repository.
func NewBootstrapRepo() *BootstrapRepo {
	return &BootstrapRepo{}
}

// ListRoles implements rbac.BootstrapStore.
func (r *BootstrapRepo) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var roles []rbac.Role
	if err := pgxscan.Select(ctx, q, &roles, `SELECT id, name FROM roles ORDER BY created_at, name`); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// CreateRole implements rbac.BootstrapStore.
func (r *BootstrapRepo) CreateRole(ctx context.Context, name string) (rbac.Role, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return rbac.Role{}, err
	}

	if _, err := q.Exec(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT ((lower(name))) DO NOTHING`, id.New(), name); err != nil {
		return rbac.Role{}, fmt.Errorf("insert role: %w", err)
	}

	var role rbac.Role
	if err := pgxscan.Get(ctx, q, &role, `SELECT id, name FROM roles WHERE lower(name) = lower($1)`, name); err != nil {
		return rbac.Role{}, fmt.Errorf("read role: %w", err)
	}
	return role, nil
}

// EnsureAction implements rbac.BootstrapStore.
func (r *BootstrapRepo) EnsureAction(ctx context.Context, key security.Action) (bool, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return false, err
	}

	tag, err := q.Exec(ctx,
		`INSERT INTO permission_actions (id, action_key) VALUES ($1, $2) ON CONFLICT (action_key) DO NOTHING`,
		id.New(), string(key))
	if err != nil {
		return false, fmt.Errorf("insert action: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// EnsureResource implements rbac.BootstrapStore.
func (r *BootstrapRepo) EnsureResource(ctx context.Context, e rbac.CatalogEntry) (bool, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return false, err
	}

	tag, err := q.Exec(ctx, `
		INSERT INTO permission_resources (id, resource_key, resource_type, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (resource_key) DO NOTHING`,
		id.New(), e.Key, string(e.Type), e.Description)
	if err != nil {
		return false, fmt.Errorf("insert resource: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// EnsureBranch implements rbac.BootstrapStore. When no branch is active, the
// branch with code is created, or reactivated if it exists.
func (r *BootstrapRepo) EnsureBranch(ctx context.Context, code, name string) (bool, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return false, err
	}

	var active bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM branches WHERE is_active)`).Scan(&active); err != nil {
		return false, fmt.Errorf("check active branch: %w", err)
	}
	if active {
		return false, nil
	}

	_, err = q.Exec(ctx, `
		INSERT INTO branches (id, code, name) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET is_active = true, updated_at = now()`,
		id.New(), code, name)
	if err != nil {
		return false, fmt.Errorf("insert branch: %w", err)
	}
	return true, nil
}

// BranchByCode implements rbac.BootstrapStore.
func (r *BootstrapRepo) BranchByCode(ctx context.Context, code string) (id.ID, error) {
	return r.branchID(ctx, `SELECT id FROM branches WHERE code = $1 AND is_active`, code)
}

// FirstActiveBranch implements rbac.BootstrapStore.
func (r *BootstrapRepo) FirstActiveBranch(ctx context.Context) (id.ID, error) {
	return r.branchID(ctx, `SELECT id FROM branches WHERE is_active ORDER BY created_at, code LIMIT 1`)
}

func (r *BootstrapRepo) branchID(ctx context.Context, query string, args ...any) (id.ID, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return id.Nil(), err
	}

	var branchID id.ID
	err = q.QueryRow(ctx, query, args...).Scan(&branchID)
	if errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), apperror.NewNotFound("branch", fmt.Sprint(args...))
	}
	if err != nil {
		return id.Nil(), fmt.Errorf("query branch: %w", err)
	}
	return branchID, nil
}

// ListActiveResources implements rbac.BootstrapStore.
func (r *BootstrapRepo) ListActiveResources(ctx context.Context) ([]rbac.Resource, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out []rbac.Resource
	err = pgxscan.Select(ctx, q, &out, `
		SELECT id, resource_key, resource_type, description, is_active
		FROM permission_resources WHERE is_active ORDER BY resource_key`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return out, nil
}

// ListActiveActions implements rbac.BootstrapStore.
func (r *BootstrapRepo) ListActiveActions(ctx context.Context) ([]rbac.Action, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out []rbac.Action
	err = pgxscan.Select(ctx, q, &out, `
		SELECT id, action_key, is_active
		FROM permission_actions WHERE is_active ORDER BY action_key`)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return out, nil
}

type tripleRow struct {
	RoleID     id.ID `db:"role_id"`
	ResourceID id.ID `db:"resource_id"`
	ActionID   id.ID `db:"action_id"`
}

// ExistingRoleDefaults implements rbac.BootstrapStore.
func (r *BootstrapRepo) ExistingRoleDefaults(ctx context.Context) (map[rbac.Triple]struct{}, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []tripleRow
	if err := pgxscan.Select(ctx, q, &rows, `SELECT role_id, resource_id, action_id FROM role_permissions`); err != nil {
		return nil, fmt.Errorf("list role defaults: %w", err)
	}

	out := make(map[rbac.Triple]struct{}, len(rows))
	for _, t := range rows {
		out[rbac.Triple{RoleID: t.RoleID, ResourceID: t.ResourceID, ActionID: t.ActionID}] = struct{}{}
	}
	return out, nil
}

// InsertRoleDefaults implements rbac.BootstrapStore. Conflicting rows are skipped,
// so a concurrent bootstrap never overwrites what another one inserted.
func (r *BootstrapRepo) InsertRoleDefaults(ctx context.Context, rows []rbac.RoleDefault) (int, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))

		sql, args, err := roleDefaultsInsert(rows[start:end]).ToSql()
		if err != nil {
			return inserted, fmt.Errorf("build insert: %w", err)
		}

		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert role defaults: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// UpsertAdminUser implements rbac.BootstrapStore.
func (r *BootstrapRepo) UpsertAdminUser(ctx context.Context, u rbac.AdminUser) (bool, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return false, err
	}

	// xmax = 0 only for freshly inserted tuples.
	query := `
		INSERT INTO users (id, username, display_name, password_hash, role_id, branch_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			password_hash = EXCLUDED.password_hash,
			role_id = EXCLUDED.role_id,
			branch_id = EXCLUDED.branch_id,
			is_active = true,
			updated_at = now()
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err = q.QueryRow(ctx, query, u.ID, u.Username, u.DisplayName, u.PasswordHash, u.RoleID, u.BranchID).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert admin user: %w", err)
	}
	return inserted, nil
}
