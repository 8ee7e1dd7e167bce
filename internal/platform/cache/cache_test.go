package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestCache(t *testing.T) (AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute, zerolog.Nop()), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "doc-1", "2024-06-10", "legacy"); ok {
		t.Fatal("expected miss on empty cache")
	}

	slots := []string{"09:00", "09:30", "10:00"}
	c.Set(ctx, "doc-1", "2024-06-10", "legacy", slots)

	got, ok := c.Get(ctx, "doc-1", "2024-06-10", "legacy")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if !reflect.DeepEqual(got, slots) {
		t.Errorf("slots = %v, want %v", got, slots)
	}
}

func TestRedisCache_LocationsShareOneKey(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "doc-1", "2024-06-10", "legacy", []string{"09:00"})
	c.Set(ctx, "doc-1", "2024-06-10", "online", []string{"14:00"})

	if got := len(mr.Keys()); got != 1 {
		t.Fatalf("got %d redis keys, want 1 hash per doctor and date", got)
	}

	c.Invalidate(ctx, "doc-1", "2024-06-10")
	if _, ok := c.Get(ctx, "doc-1", "2024-06-10", "legacy"); ok {
		t.Error("legacy entry survived invalidation")
	}
	if _, ok := c.Get(ctx, "doc-1", "2024-06-10", "online"); ok {
		t.Error("online entry survived invalidation")
	}
}

func TestRedisCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "doc-1", "2024-06-10", "legacy", []string{"09:00"})
	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, "doc-1", "2024-06-10", "legacy"); ok {
		t.Error("entry survived past its ttl")
	}
}

func TestRedisCache_EmptySliceIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "doc-1", "2024-06-10", "online", []string{})
	got, ok := c.Get(ctx, "doc-1", "2024-06-10", "online")
	if !ok {
		t.Fatal("expected hit for cached empty day")
	}
	if len(got) != 0 {
		t.Errorf("slots = %v, want empty", got)
	}
}

func TestRedisCache_DownRedisIsAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedis(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	c.Set(ctx, "doc-1", "2024-06-10", "legacy", []string{"09:00"})
	mr.Close()

	if _, ok := c.Get(ctx, "doc-1", "2024-06-10", "legacy"); ok {
		t.Error("expected miss when redis is unreachable")
	}
}
