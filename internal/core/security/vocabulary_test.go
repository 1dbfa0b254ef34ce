package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"Admin", RoleAdmin, true},
		{" ADMINISTRATOR ", RoleAdmin, true},
		{"manger", RoleManager, true},
		{"Staff", RoleEmployee, true},
		{"cashier", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleAliases(t *testing.T) {
	assert.Equal(t, []string{"admin", "administrator", "adminstrator", "admn"}, RoleAliases(RoleAdmin))
	assert.Contains(t, RoleAliases(RoleEmployee), "staff")
	assert.Empty(t, RoleAliases(Role("Owner")))
}

func TestDecision_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Decision
		want Decision
	}{
		{"allow branch", Allow(ScopeBranch), Allow(ScopeBranch)},
		{"allow none", Allow(ScopeNone), Deny()},
		{"allow unknown scope", Decision{Effect: EffectAllow, Scope: "everything"}, Deny()},
		{"deny all", Decision{Effect: EffectDeny, Scope: ScopeAll}, Deny()},
		{"empty", Decision{}, Deny()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
			assert.Equal(t, tt.want.Effect == EffectAllow, tt.in.Allowed())
		})
	}
}
