package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"terratip_backend/internal/leads/domain"
)

func newTestCache(t *testing.T) (*Snapshot, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb, time.Minute), mr
}

func TestSnapshotRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	leads := []domain.Lead{
		{Name: "Asha", Phone: "9876543210", Status: "New"},
		{Name: "Ravi", Phone: "9123456789", Status: "Call Done"},
	}

	if err := cache.Set(ctx, leads); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := cache.Get(ctx)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(got) != 2 || got[0].Name != "Asha" || got[1].Status != "Call Done" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestSnapshotMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	if _, ok := cache.Get(context.Background()); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestSnapshotExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, []domain.Lead{{Name: "Asha"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx); ok {
		t.Fatalf("expected miss after TTL")
	}
}

func TestSnapshotInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, []domain.Lead{{Name: "Asha"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := cache.Get(ctx); ok {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestNilSnapshotIsNoOp(t *testing.T) {
	var cache *Snapshot
	ctx := context.Background()

	if err := cache.Set(ctx, []domain.Lead{{Name: "Asha"}}); err != nil {
		t.Fatalf("nil cache Set should be no-op, got %v", err)
	}
	if _, ok := cache.Get(ctx); ok {
		t.Fatalf("nil cache should always miss")
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("nil cache Invalidate should be no-op, got %v", err)
	}
}
