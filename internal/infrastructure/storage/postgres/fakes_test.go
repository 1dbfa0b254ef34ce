package postgres

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeConn records the statements it receives.
type fakeConn struct {
	mu        sync.Mutex
	execs     []execCall
	failReset bool
	failStamp bool
	released  bool
	destroyed bool
	tx        *fakeTx
}

type execCall struct {
	sql  string
	args []any
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.execs = append(c.execs, execCall{sql: sql, args: args})
	if sql == stampSQL {
		reset := len(args) > 0 && args[0] == "" && args[1] == ""
		if reset && c.failReset {
			return pgconn.CommandTag{}, errors.New("connection broken")
		}
		if !reset && c.failStamp {
			return pgconn.CommandTag{}, errors.New("stamp failed")
		}
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (c *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeConn) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (c *fakeConn) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	c.tx = &fakeTx{}
	return c.tx, nil
}

func (c *fakeConn) Release() { c.released = true }

func (c *fakeConn) Destroy(context.Context) error {
	c.destroyed = true
	return nil
}

// stamps returns the session values of every stamp statement, in order.
func (c *fakeConn) stamps() [][]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out [][]any
	for _, e := range c.execs {
		if e.sql == stampSQL {
			out = append(out, e.args)
		}
	}
	return out
}

// fakeTx implements the parts of pgx.Tx used by TxManager.
type fakeTx struct {
	pgx.Tx
	execs      []string
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) savepoints() []string {
	var out []string
	for _, s := range t.execs {
		if strings.Contains(s, "SAVEPOINT") {
			out = append(out, s)
		}
	}
	return out
}

// fakePool hands out fresh fakeConns and counts acquisitions.
type fakePool struct {
	mu       sync.Mutex
	acquired []*fakeConn
	next     func() *fakeConn
	err      error
}

func (p *fakePool) Acquire(context.Context) (PooledConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	c := &fakeConn{}
	if p.next != nil {
		c = p.next()
	}
	p.acquired = append(p.acquired, c)
	return c, nil
}

func (p *fakePool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.acquired)
}
