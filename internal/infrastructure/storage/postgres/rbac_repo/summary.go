package rbac_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"branchpos/internal/core/tenancy"
	"branchpos/internal/infrastructure/storage/postgres"
)

// RoleDefaultCount is the number of role default rows stored for one role.
type RoleDefaultCount struct {
	Role  string `db:"role"`
	Total int64  `db:"total"`
	Allow int64  `db:"allow"`
}

func roleDefaultCountsQuery() squirrel.SelectBuilder {
	return postgres.Builder().
		Select("r.name AS role", "COUNT(*) AS total",
			"COUNT(*) FILTER (WHERE rp.effect = 'allow') AS allow").
		From("role_permissions rp").
		Join("roles r ON r.id = rp.role_id").
		GroupBy("r.name").
		OrderBy("r.name")
}

// RoleDefaultCounts summarizes role_permissions per role. It takes an explicit
// querier because it runs on the maintenance path, outside any request scope.
func RoleDefaultCounts(ctx context.Context, q tenancy.Querier) ([]RoleDefaultCount, error) {
	sql, args, err := roleDefaultCountsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build role default summary: %w", err)
	}

	var out []RoleDefaultCount
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("count role defaults: %w", err)
	}
	return out, nil
}
