package cache

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestCache_ExpiresAfterTTL(t *testing.T) {
	mock := clock.NewMock()
	c := New[string, int](0, WithClock(mock))
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", 42, time.Minute)

	mock.Add(59 * time.Second)
	if v, ok := c.Get(ctx, "k"); !ok || v != 42 {
		t.Fatalf("expected hit before TTL, got %d %v", v, ok)
	}

	mock.Add(time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss once the entry is exactly TTL old")
	}
}

func TestCache_GetWithTime(t *testing.T) {
	mock := clock.NewMock()
	c := New[string, string](0, WithClock(mock))
	defer c.Close()

	stored := mock.Now()
	c.Set(context.Background(), "endpoint", "https://rpc.example", time.Minute)
	mock.Add(10 * time.Second)

	v, at, ok := c.GetWithTime("endpoint")
	if !ok {
		t.Fatal("expected hit")
	}
	if v != "https://rpc.example" {
		t.Errorf("unexpected value %q", v)
	}
	if !at.Equal(stored) {
		t.Errorf("expected stored time %v, got %v", stored, at)
	}
}

func TestCache_EvictExpired(t *testing.T) {
	mock := clock.NewMock()
	c := New[string, int](0, WithClock(mock))
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "short", 1, time.Second)
	c.Set(ctx, "long", 2, time.Hour)

	mock.Add(2 * time.Second)
	c.evictExpired()

	if c.Len() != 1 {
		t.Errorf("expected 1 entry after eviction, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "long"); !ok {
		t.Error("expected long-lived entry to survive")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](0)
	defer c.Close()

	c.Set(context.Background(), "k", 1, time.Hour)
	c.Delete("k")

	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("expected deleted key to miss")
	}
}
