package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"branchpos/internal/domain/branch"
)

// Compile-time check that BranchSelectionStore implements branch.SelectionStore.
var _ branch.SelectionStore = (*BranchSelectionStore)(nil)

const branchSelectionPrefix = "branchpos:session:branch:"

// BranchSelectionStore keeps admin branch selections in Redis so they survive
// restarts and are shared by every instance. Entries expire with the session.
type BranchSelectionStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewBranchSelectionStore creates the store. ttl should match the refresh token
// lifetime; zero keeps entries until logout.
func NewBranchSelectionStore(rdb *goredis.Client, ttl time.Duration) *BranchSelectionStore {
	return &BranchSelectionStore{rdb: rdb, ttl: ttl}
}

func selectionKey(sessionID string) string {
	return branchSelectionPrefix + sessionID
}

func (s *BranchSelectionStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, selectionKey(sessionID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *BranchSelectionStore) Set(ctx context.Context, sessionID, branchID string) error {
	if err := s.rdb.Set(ctx, selectionKey(sessionID), branchID, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *BranchSelectionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, selectionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
