package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchpos/internal/core/security"
)

type countingResolver struct {
	calls int
	d     security.Decision
	err   error
}

func (r *countingResolver) Resolve(ctx context.Context, userID, role, resourceKey, actionKey string) (security.Decision, error) {
	r.calls++
	return r.d, r.err
}

type hitMiss struct{ hits, misses int }

func (h *hitMiss) PolicyCacheHit()  { h.hits++ }
func (h *hitMiss) PolicyCacheMiss() { h.misses++ }

func TestCachedResolver_CachesDecisions(t *testing.T) {
	next := &countingResolver{d: security.Allow(security.ScopeBranch)}
	rec := &hitMiss{}
	c := NewCachedResolver(next, 16, time.Minute, rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := c.Resolve(ctx, "u1", "Manager", "orders.page", "view")
		require.NoError(t, err)
		assert.Equal(t, security.Allow(security.ScopeBranch), d)
	}

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 1, rec.misses)

	_, _ = c.Resolve(ctx, "u1", "Manager", "orders.page", "update")
	assert.Equal(t, 2, next.calls)
}

func TestCachedResolver_Purge(t *testing.T) {
	next := &countingResolver{d: security.Deny()}
	c := NewCachedResolver(next, 16, time.Minute, nil)
	ctx := context.Background()

	_, _ = c.Resolve(ctx, "u1", "Employee", "orders.page", "delete")
	require.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())

	_, _ = c.Resolve(ctx, "u1", "Employee", "orders.page", "delete")
	assert.Equal(t, 2, next.calls)
}

func TestCachedResolver_ErrorsAreNotCached(t *testing.T) {
	next := &countingResolver{err: errors.New("db down")}
	c := NewCachedResolver(next, 16, time.Minute, nil)
	ctx := context.Background()

	d, err := c.Resolve(ctx, "u1", "Admin", "orders.page", "view")
	require.Error(t, err)
	assert.Equal(t, security.Deny(), d)
	assert.Equal(t, 0, c.Len())

	_, _ = c.Resolve(ctx, "u1", "Admin", "orders.page", "view")
	assert.Equal(t, 2, next.calls)
}

// gatedResolver blocks inside Resolve until release is closed.
type gatedResolver struct {
	entered chan struct{}
	release chan struct{}
	d       security.Decision
}

func (r *gatedResolver) Resolve(ctx context.Context, userID, role, resourceKey, actionKey string) (security.Decision, error) {
	close(r.entered)
	<-r.release
	return r.d, nil
}

func TestCachedResolver_PurgeDuringLookupDropsResult(t *testing.T) {
	next := &gatedResolver{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		d:       security.Allow(security.ScopeBranch),
	}
	c := NewCachedResolver(next, 16, time.Minute, nil)

	done := make(chan security.Decision)
	go func() {
		d, _ := c.Resolve(context.Background(), "u1", "Employee", "orders.page", "view")
		done <- d
	}()

	<-next.entered
	// An override is committed and the cache purged while the lookup still
	// holds the rows it read before the edit.
	c.Purge()
	close(next.release)

	assert.Equal(t, security.Allow(security.ScopeBranch), <-done, "the in-flight caller still gets its answer")
	assert.Equal(t, 0, c.Len(), "a decision read before the purge must not be cached")
}
