package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"branchpos/internal/domain/rbac"
	"branchpos/pkg/logger"
)

// Purger drops cached state.
type Purger interface {
	Purge()
}

// PolicyListener purges decision caches when any instance edits a rule.
// Edits on this instance purge locally; the NOTIFY reaches the others.
type PolicyListener struct {
	pool    *pgxpool.Pool
	purgers []Purger

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewPolicyListener creates a listener that purges every purger on notification.
func NewPolicyListener(pool *pgxpool.Pool, purgers ...Purger) *PolicyListener {
	return &PolicyListener{pool: pool, purgers: purgers}
}

// Start begins listening in the background.
func (l *PolicyListener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "policy listener started")
}

// Stop stops the listener and waits for it to exit.
func (l *PolicyListener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
	logger.Info(context.Background(), "policy listener stopped")
}

func (l *PolicyListener) listenLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		// LISTEN needs a dedicated connection. It never carries a tenancy stamp.
		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(l.ctx, "LISTEN "+rbac.PolicyChangedChannel); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		// Anything edited while we were not listening is unknown.
		l.purge(rbac.PolicyChangedChannel, "resubscribe")
		l.wait(conn)

		// Drop the subscription with the connection.
		_ = conn.Conn().Close(context.Background())
		conn.Release()
	}
}

func (l *PolicyListener) wait(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		n, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// Timeout is expected, continue listening
				continue
			}
			logger.Warn(l.ctx, "policy listener connection lost", "error", err)
			return
		}

		l.purge(n.Channel, n.Payload)
	}
}

func (l *PolicyListener) purge(channel, payload string) {
	logger.Debug(l.ctx, "purging policy caches", "channel", channel, "payload", payload)
	for _, p := range l.purgers {
		p.Purge()
	}
}

func (l *PolicyListener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
