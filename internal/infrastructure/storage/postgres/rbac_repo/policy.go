// Package rbac_repo provides PostgreSQL implementations for the rbac stores.
// Every query runs on the connection of the ambient tenancy scope.
package rbac_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/storage/postgres"
)

// Compile-time check that PolicyRepo implements rbac.PolicyStore.
var _ rbac.PolicyStore = (*PolicyRepo)(nil)

// PolicyRepo reads stored rules for the resolver.
type PolicyRepo struct{}

// NewPolicyRepo creates a new policy repository.
func NewPolicyRepo() *PolicyRepo {
	return &PolicyRepo{}
}

// lookupRulesSQL answers one decision in a single round trip.
// $1 user id (nullable), $2 lowercased role aliases, $3 resource key, $4 action key.
const lookupRulesSQL = `
	WITH res AS (
		SELECT id FROM permission_resources WHERE resource_key = $3 AND is_active
	), act AS (
		SELECT id FROM permission_actions WHERE action_key = $4 AND is_active
	), rol AS (
		SELECT id FROM roles WHERE lower(name) = ANY($2::text[]) ORDER BY created_at LIMIT 1
	)
	SELECT
		EXISTS (SELECT 1 FROM res) AS resource_known,
		EXISTS (SELECT 1 FROM act) AS action_known,
		EXISTS (SELECT 1 FROM rol) AS role_known,
		up.effect AS override_effect,
		up.scope  AS override_scope,
		rp.effect AS default_effect,
		rp.scope  AS default_scope
	FROM (SELECT 1) AS one
	LEFT JOIN user_permissions up
		ON up.user_id = $1::uuid
		AND up.resource_id = (SELECT id FROM res)
		AND up.action_id = (SELECT id FROM act)
	LEFT JOIN role_permissions rp
		ON rp.role_id = (SELECT id FROM rol)
		AND rp.resource_id = (SELECT id FROM res)
		AND rp.action_id = (SELECT id FROM act)
`

type policyRow struct {
	ResourceKnown  bool    `db:"resource_known"`
	ActionKnown    bool    `db:"action_known"`
	RoleKnown      bool    `db:"role_known"`
	OverrideEffect *string `db:"override_effect"`
	OverrideScope  *string `db:"override_scope"`
	DefaultEffect  *string `db:"default_effect"`
	DefaultScope   *string `db:"default_scope"`
}

func decisionOf(effect, scope *string) *security.Decision {
	if effect == nil {
		return nil
	}
	d := security.Decision{Effect: security.Effect(*effect)}
	if scope != nil {
		d.Scope = security.Scope(*scope)
	}
	return &d
}

// LookupRules implements rbac.PolicyStore.
func (r *PolicyRepo) LookupRules(ctx context.Context, key rbac.PolicyKey) (rbac.PolicyRows, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return rbac.PolicyRows{}, err
	}

	// A user id that is not a uuid cannot own overrides.
	var userID *id.ID
	if u, err := id.Parse(key.UserID); err == nil {
		userID = &u
	}

	aliases := []string{}
	if key.Role != "" {
		aliases = security.RoleAliases(key.Role)
	}

	var row policyRow
	if err := pgxscan.Get(ctx, q, &row, lookupRulesSQL, userID, aliases, key.ResourceKey, key.ActionKey); err != nil {
		return rbac.PolicyRows{}, fmt.Errorf("lookup rules: %w", err)
	}

	return rbac.PolicyRows{
		ResourceKnown: row.ResourceKnown,
		ActionKnown:   row.ActionKnown,
		RoleKnown:     row.RoleKnown,
		Override:      decisionOf(row.OverrideEffect, row.OverrideScope),
		Default:       decisionOf(row.DefaultEffect, row.DefaultScope),
	}, nil
}
