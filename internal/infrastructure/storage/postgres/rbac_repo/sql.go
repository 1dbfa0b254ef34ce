package rbac_repo

import (
	"github.com/Masterminds/squirrel"

	"branchpos/internal/core/id"
	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/storage/postgres"
)

// roleDefaultsInsert builds one multi-row insert that skips existing triples.
func roleDefaultsInsert(rows []rbac.RoleDefault) squirrel.InsertBuilder {
	q := postgres.Builder().
		Insert("role_permissions").
		Columns("id", "role_id", "resource_id", "action_id", "effect", "scope")

	for _, r := range rows {
		q = q.Values(id.New(), r.RoleID, r.ResourceID, r.ActionID, string(r.Decision.Effect), string(r.Decision.Scope))
	}

	return q.Suffix("ON CONFLICT (role_id, resource_id, action_id) DO NOTHING")
}
