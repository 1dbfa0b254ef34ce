package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"branchpos/internal/core/security"
)

// Compile-time check that CachedResolver implements security.PolicyResolver.
var _ security.PolicyResolver = (*CachedResolver)(nil)

// CacheRecorder counts cache lookups.
type CacheRecorder interface {
	PolicyCacheHit()
	PolicyCacheMiss()
}

// CachedResolver memoizes decisions for a short TTL. Errors are never cached.
// Policy edits must call Purge.
type CachedResolver struct {
	next     security.PolicyResolver
	lru      *expirable.LRU[string, security.Decision]
	recorder CacheRecorder

	// generation is bumped by Purge; a lookup that straddles a purge is not stored.
	generation atomic.Uint64
}

// NewCachedResolver wraps next. size <= 0 or ttl <= 0 selects defaults.
// recorder may be nil.
func NewCachedResolver(next security.PolicyResolver, size int, ttl time.Duration, recorder CacheRecorder) *CachedResolver {
	if size <= 0 {
		size = 4096
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedResolver{
		next:     next,
		lru:      expirable.NewLRU[string, security.Decision](size, nil, ttl),
		recorder: recorder,
	}
}

func decisionKey(userID, role, resourceKey, actionKey string) string {
	return strings.Join([]string{userID, strings.ToLower(role), resourceKey, actionKey}, "\x00")
}

// Resolve implements security.PolicyResolver.
func (c *CachedResolver) Resolve(ctx context.Context, userID, role, resourceKey, actionKey string) (security.Decision, error) {
	key := decisionKey(userID, role, resourceKey, actionKey)
	if d, ok := c.lru.Get(key); ok {
		if c.recorder != nil {
			c.recorder.PolicyCacheHit()
		}
		return d, nil
	}
	if c.recorder != nil {
		c.recorder.PolicyCacheMiss()
	}

	gen := c.generation.Load()
	d, err := c.next.Resolve(ctx, userID, role, resourceKey, actionKey)
	if err != nil {
		return security.Deny(), err
	}
	if c.generation.Load() == gen {
		c.lru.Add(key, d)
	}
	return d, nil
}

// Purge drops every cached decision. Lookups already in flight return their
// result but do not store it.
func (c *CachedResolver) Purge() {
	c.generation.Add(1)
	c.lru.Purge()
}

// Len returns the number of cached decisions.
func (c *CachedResolver) Len() int {
	return c.lru.Len()
}
