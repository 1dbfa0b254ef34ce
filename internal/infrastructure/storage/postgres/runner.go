package postgres

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"branchpos/internal/core/tenancy"
	"branchpos/internal/infrastructure/metrics"
	"branchpos/pkg/logger"
)

// Compile-time check that Runner implements tenancy.Runner.
var _ tenancy.Runner = (*Runner)(nil)

// RunnerConfig configures Runner behavior.
type RunnerConfig struct {
	// ResetTimeout bounds the session reset on scope exit. The reset runs on a
	// context detached from request cancellation.
	ResetTimeout time.Duration

	// Strict turns nested-scope mismatches into panics (development builds).
	Strict bool
}

// DefaultRunnerConfig returns production-safe defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ResetTimeout: 5 * time.Second,
	}
}

// Runner binds one pooled connection to one tenancy scope:
// acquire, stamp the session variables, run, reset, release.
type Runner struct {
	pool     ConnPool
	unscoped tenancy.Querier
	cfg      RunnerConfig
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewRunner creates a runner over pool.
func NewRunner(pool *Pool, cfg RunnerConfig, log *logger.Logger, m *metrics.Metrics) *Runner {
	return NewRunnerWithConnPool(pool.ConnPool(), pool.Pool, cfg, log, m)
}

// NewRunnerWithConnPool creates a runner over any ConnPool. unscoped is the
// querier returned by Unscoped and may be nil.
func NewRunnerWithConnPool(pool ConnPool, unscoped tenancy.Querier, cfg RunnerConfig, log *logger.Logger, m *metrics.Metrics) *Runner {
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultRunnerConfig().ResetTimeout
	}
	return &Runner{
		pool:     pool,
		unscoped: unscoped,
		cfg:      cfg,
		log:      log.WithComponent("tenancy-runner"),
		metrics:  m,
	}
}

// Run executes fn inside a scope stamped with p.
//
// A nested Run with the same params reuses the active connection. A nested Run
// with different params is refused with tenancy.ErrScopeMismatch: it would need
// a second connection for the same unit of work.
func (r *Runner) Run(ctx context.Context, p tenancy.Params, fn func(ctx context.Context) error) error {
	if cur := tenancy.FromContext(ctx); cur != nil {
		if cur.Unscoped() || cur.Params != p {
			return r.mismatch(cur, p)
		}
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "tenancy.run",
		trace.WithAttributes(
			attribute.String("tenancy.branch_id", p.BranchID),
			attribute.String("tenancy.role", p.Role),
			attribute.Bool("tenancy.is_admin", p.IsAdmin),
		))
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "acquire")
		return fmt.Errorf("acquire connection: %w", err)
	}
	r.metrics.ScopeOpened()
	// Deferred so that errors, panics and cancelled requests all reset and release.
	defer r.release(ctx, conn)

	if err := stamp(ctx, conn, p); err != nil {
		span.SetStatus(codes.Error, "stamp")
		return fmt.Errorf("stamp session variables: %w", err)
	}

	return fn(tenancy.With(ctx, tenancy.New(p, conn)))
}

// release resets the session variables and returns conn to the pool. A connection
// whose reset failed is destroyed, so stale identity never reaches the next request.
func (r *Runner) release(ctx context.Context, conn PooledConn) {
	defer r.metrics.ScopeClosed()

	resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.ResetTimeout)
	defer cancel()

	if err := stamp(resetCtx, conn, tenancy.Params{}); err != nil {
		r.metrics.ResetFailed()
		r.log.WithContext(ctx).Errorw("session reset failed, discarding connection", "error", err)

		r.metrics.ConnDiscarded()
		if derr := conn.Destroy(resetCtx); derr != nil {
			r.log.WithContext(ctx).Warnw("close discarded connection", "error", derr)
		}
		return
	}

	conn.Release()
}

func (r *Runner) mismatch(cur *tenancy.Context, want tenancy.Params) error {
	err := fmt.Errorf("%w: active user=%q branch=%q unscoped=%t, requested user=%q branch=%q",
		tenancy.ErrScopeMismatch, cur.UserID, cur.BranchID, cur.Unscoped(), want.UserID, want.BranchID)
	if r.cfg.Strict {
		panic(err)
	}
	return err
}

// Unscoped returns the raw pool for startup and maintenance code. Queries through
// it carry no session variables and bypass branch narrowing. Asking for it while a
// scope is active fails with tenancy.ErrUnscopedInScope, or panics in strict mode.
func (r *Runner) Unscoped(ctx context.Context) (tenancy.Querier, error) {
	if cur := tenancy.FromContext(ctx); cur != nil {
		err := fmt.Errorf("%w: active user=%q branch=%q",
			tenancy.ErrUnscopedInScope, cur.UserID, cur.BranchID)
		if r.cfg.Strict {
			panic(err)
		}
		return nil, err
	}
	if r.unscoped == nil {
		return nil, fmt.Errorf("runner has no maintenance querier")
	}
	return r.unscoped, nil
}
