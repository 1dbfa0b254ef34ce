package dto

import (
	"branchpos/internal/core/security"
	"branchpos/internal/domain/rbac"
)

// ExplainQuery selects the actor and triple to explain.
type ExplainQuery struct {
	UserID   string `form:"userId"`
	Role     string `form:"role" binding:"required"`
	Resource string `form:"resource" binding:"required"`
	Action   string `form:"action" binding:"required"`
}

// RuleRequest is the body of a rule edit.
type RuleRequest struct {
	Effect string `json:"effect" binding:"required"`
	Scope  string `json:"scope"`
}

// ToInput converts DTO to the admin service's rule input.
// A deny without scope is stored as deny/none.
func (r *RuleRequest) ToInput(resource, action string) rbac.RuleInput {
	scope := security.Scope(r.Scope)
	if scope == "" && security.Effect(r.Effect) == security.EffectDeny {
		scope = security.ScopeNone
	}
	return rbac.RuleInput{
		ResourceKey: resource,
		ActionKey:   action,
		Decision: security.Decision{
			Effect: security.Effect(r.Effect),
			Scope:  scope,
		},
	}
}

// ExplainResponse is a decision with its source.
type ExplainResponse struct {
	Effect string `json:"effect"`
	Scope  string `json:"scope"`
	Source string `json:"source"`
}

// FromExplanation converts a policy explanation to response DTO.
func FromExplanation(e rbac.Explanation) ExplainResponse {
	return ExplainResponse{
		Effect: string(e.Decision.Effect),
		Scope:  string(e.Decision.Scope),
		Source: string(e.Source),
	}
}
