package middleware

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"branchpos/internal/core/apperror"
	appctx "branchpos/internal/core/context"
	"branchpos/internal/core/security"
	"branchpos/internal/core/tenancy"
)

// BranchResolver returns the branch a request of actor runs in and confirms,
// inside the scope, that it is still usable.
type BranchResolver interface {
	EffectiveBranch(ctx context.Context, actor *appctx.UserContext) (string, error)
	ConfirmSelection(ctx context.Context, actor *appctx.UserContext, branchID string) error
}

// Tenancy opens one tenancy scope around the rest of the chain. Every query made
// while handling the request runs on the scope's connection, stamped with the
// actor's identity and effective branch. Must run after Auth.
func Tenancy(branches BranchResolver, runner tenancy.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user := appctx.GetUser(ctx)
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		branchID, err := branches.EffectiveBranch(ctx, user)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		// An empty branch means "all branches" and is legal only for admins.
		if branchID == "" && !user.IsAdmin {
			_ = c.Error(apperror.NewNoActiveBranch())
			c.Abort()
			return
		}

		params := ScopeParams(user, branchID)
		err = runner.Run(ctx, params, func(ctx context.Context) error {
			if err := branches.ConfirmSelection(ctx, user, branchID); err != nil {
				_ = c.Error(err)
				c.Abort()
				return nil
			}
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return nil
		})
		if err != nil {
			_ = c.Error(apperror.NewInternal(fmt.Errorf("open tenancy scope: %w", err)))
			c.Abort()
		}
	}
}

// ScopeParams builds the session stamp for actor. The role is stored in its
// canonical spelling when it is a known alias.
func ScopeParams(user *appctx.UserContext, branchID string) tenancy.Params {
	role := user.Role
	if r, ok := security.NormalizeRole(role); ok {
		role = string(r)
	}
	return tenancy.Params{
		BranchID: branchID,
		UserID:   user.UserID,
		Role:     role,
		IsAdmin:  user.IsAdmin,
	}
}
