package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"branchpos/internal/core/tenancy"
)

// PooledConn is a connection exclusively owned by one scope between Acquire and
// Release. Destroy closes it instead of returning it to the pool.
type PooledConn interface {
	tenancy.Conn
	Release()
	Destroy(ctx context.Context) error
}

// ConnPool hands out pooled connections.
type ConnPool interface {
	Acquire(ctx context.Context) (PooledConn, error)
}

// pgxConnPool adapts pgxpool.Pool to ConnPool.
type pgxConnPool struct {
	pool *pgxpool.Pool
}

func (p pgxConnPool) Acquire(ctx context.Context) (PooledConn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: c}, nil
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *pgxConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *pgxConn) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return c.conn.BeginTx(ctx, opts)
}

func (c *pgxConn) Release() {
	c.conn.Release()
}

// Destroy takes the connection out of the pool and closes it.
func (c *pgxConn) Destroy(ctx context.Context) error {
	return c.conn.Hijack().Close(ctx)
}

// stampSQL sets all four session variables in one round trip.
// is_local=false: the values live for the session, until the next stamp.
var stampSQL = fmt.Sprintf(
	`SELECT set_config('%s', $1, false), set_config('%s', $2, false), set_config('%s', $3, false), set_config('%s', $4, false)`,
	tenancy.VarBranchID, tenancy.VarUserID, tenancy.VarUserRole, tenancy.VarIsAdmin,
)

// stamp writes p into the session variables of q. Params{} resets them.
func stamp(ctx context.Context, q tenancy.Querier, p tenancy.Params) error {
	v := p.SessionValues()
	_, err := q.Exec(ctx, stampSQL, v[0], v[1], v[2], v[3])
	return err
}

// QuerierFromContext returns the transaction or connection bound to the ambient
// scope. Outside of a scope it fails with tenancy.ErrNoTenancy; it never falls back
// to the pool.
func QuerierFromContext(ctx context.Context) (tenancy.Querier, error) {
	tc, err := tenancy.Require(ctx)
	if err != nil {
		return nil, err
	}
	return tc.Querier(), nil
}
