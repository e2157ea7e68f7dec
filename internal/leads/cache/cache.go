// Package cache keeps a short-lived snapshot of the lead sheet in Redis so
// queue views refresh without hammering the record store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"terratip_backend/internal/leads/domain"
)

const snapshotKey = "leads:snapshot"

// Snapshot caches the full lead list with a TTL matching the live-refresh
// interval. A nil *Snapshot is a no-op cache, so callers can run without
// Redis configured.
type Snapshot struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a snapshot cache.
func New(rdb *redis.Client, ttl time.Duration) *Snapshot {
	return &Snapshot{rdb: rdb, ttl: ttl}
}

// Get returns the cached lead list, or ok=false on a miss or any cache
// failure. Cache failures never surface to callers.
func (s *Snapshot) Get(ctx context.Context) ([]domain.Lead, bool) {
	if s == nil || s.rdb == nil {
		return nil, false
	}

	raw, err := s.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}

	var leads []domain.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		return nil, false
	}
	return leads, true
}

// Set stores the lead list. Errors are returned for logging but the caller
// treats the cache as best effort.
func (s *Snapshot) Set(ctx context.Context, leads []domain.Lead) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	raw, err := json.Marshal(leads)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, snapshotKey, raw, s.ttl).Err()
}

// Invalidate drops the snapshot so the next read hits the record store.
func (s *Snapshot) Invalidate(ctx context.Context) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	err := s.rdb.Del(ctx, snapshotKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
