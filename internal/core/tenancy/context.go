// Package tenancy carries the per-request branch/user/role scope and the single
// database connection bound to it. The scope travels in context.Context, so every
// repository call made while handling a request sees the same connection.
package tenancy

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres session variables read by row-level-security policies.
const (
	VarBranchID = "app.branch_id"
	VarUserID   = "app.user_id"
	VarUserRole = "app.user_role"
	VarIsAdmin  = "app.is_admin"
)

// Params is the identity stamped onto the connection for one scope.
// Empty BranchID means "no branch filter" and is only legal for admins.
type Params struct {
	BranchID string
	UserID   string
	Role     string
	IsAdmin  bool
}

// SessionValues returns the values for VarBranchID, VarUserID, VarUserRole and
// VarIsAdmin, in that order.
func (p Params) SessionValues() [4]string {
	return [4]string{p.BranchID, p.UserID, p.Role, strconv.FormatBool(p.IsAdmin)}
}

// Querier is the subset of pgx shared by pooled connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a connection that can start a transaction.
type Conn interface {
	Querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Context is the ambient tenancy scope. It is immutable: WithTx returns a copy.
type Context struct {
	Params

	conn     Conn
	tx       pgx.Tx
	unscoped bool
}

// New creates a scope bound to conn.
func New(p Params, conn Conn) *Context {
	return &Context{Params: p, conn: conn}
}

// NewUnscoped creates a scope without identity. Used only for maintenance
// transactions opened outside of any request.
func NewUnscoped(conn Conn) *Context {
	return &Context{conn: conn, unscoped: true}
}

// Conn returns the connection bound to the scope.
func (c *Context) Conn() Conn { return c.conn }

// Tx returns the active transaction or nil.
func (c *Context) Tx() pgx.Tx { return c.tx }

// Unscoped reports whether the scope carries no identity stamp.
func (c *Context) Unscoped() bool { return c.unscoped }

// HasBranch reports whether a branch is resolved for this scope.
func (c *Context) HasBranch() bool { return c.BranchID != "" }

// Querier returns the transaction when one is active, the connection otherwise.
func (c *Context) Querier() Querier {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

// WithTx returns a copy of the scope that routes queries through tx.
func (c *Context) WithTx(tx pgx.Tx) *Context {
	cp := *c
	cp.tx = tx
	return &cp
}

type scopeKey struct{}

// With stores the scope in ctx.
func With(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, c)
}

// FromContext returns the ambient scope or nil when called outside of one.
func FromContext(ctx context.Context) *Context {
	c, _ := ctx.Value(scopeKey{}).(*Context)
	return c
}

// Require returns the ambient scope or ErrNoTenancy.
func Require(ctx context.Context) (*Context, error) {
	if c := FromContext(ctx); c != nil {
		return c, nil
	}
	return nil, ErrNoTenancy
}
