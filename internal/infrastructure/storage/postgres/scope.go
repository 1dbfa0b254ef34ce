package postgres

import (
	"github.com/Masterminds/squirrel"

	"branchpos/internal/core/security"
)

// ScopeColumns names the columns a security.Filter is applied to.
type ScopeColumns struct {
	Owner  string
	Branch string
}

// DefaultScopeColumns matches the branch_id/owner_id convention of
// branch-partitioned tables.
var DefaultScopeColumns = ScopeColumns{Owner: "owner_id", Branch: "branch_id"}

// scopeEq converts f into an equality predicate. Empty filter fields add nothing.
func scopeEq(f security.Filter, cols ScopeColumns) squirrel.Eq {
	eq := squirrel.Eq{}
	if f.BranchID != "" {
		eq[cols.Branch] = f.BranchID
	}
	if f.OwnerID != "" {
		eq[cols.Owner] = f.OwnerID
	}
	return eq
}

// ApplyScope narrows a SELECT by the scope filter.
func ApplyScope(q squirrel.SelectBuilder, f security.Filter, cols ScopeColumns) squirrel.SelectBuilder {
	if eq := scopeEq(f, cols); len(eq) > 0 {
		q = q.Where(eq)
	}
	return q
}

// ApplyScopeUpdate narrows an UPDATE by the scope filter, so rows outside the
// actor's scope are never touched even when addressed by id.
func ApplyScopeUpdate(q squirrel.UpdateBuilder, f security.Filter, cols ScopeColumns) squirrel.UpdateBuilder {
	if eq := scopeEq(f, cols); len(eq) > 0 {
		q = q.Where(eq)
	}
	return q
}

// ApplyScopeDelete narrows a DELETE by the scope filter.
func ApplyScopeDelete(q squirrel.DeleteBuilder, f security.Filter, cols ScopeColumns) squirrel.DeleteBuilder {
	if eq := scopeEq(f, cols); len(eq) > 0 {
		q = q.Where(eq)
	}
	return q
}

// Builder returns a squirrel statement builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
