package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"branchpos/internal/core/security"
)

// PermissionChecker resolves the actor's decision and rejects denied access.
type PermissionChecker interface {
	Check(ctx context.Context, resource string, action security.Action) (security.Decision, error)
}

// RequirePermission rejects the request unless the actor is allowed action on
// resource. The decision is stored in the request context so handlers and
// services reuse it instead of resolving again. Must run inside Tenancy.
func RequirePermission(checker PermissionChecker, resource string, action security.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		d, err := checker.Check(ctx, resource, action)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(security.WithDecision(ctx, resource, action, d))
		c.Set("permission_scope", string(d.Scope))

		c.Next()
	}
}
