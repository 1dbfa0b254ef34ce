// Package context carries the authenticated actor and request identifiers in
// context.Context.
package context

import (
	"context"
)

// UserContext is the authenticated actor produced by the auth layer.
// BranchID is the user's fixed home branch. An admin's selected branch is
// resolved separately by the branch selector and never written back here.
type UserContext struct {
	UserID    string
	Username  string
	Role      string
	BranchID  string
	IsAdmin   bool
	SessionID string
}

type userContextKey struct{}

// WithUser attaches the actor to ctx.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns the actor, or nil for unauthenticated requests.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userContextKey{}).(*UserContext)
	return u
}
