package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisDurationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisDurationCacheFromClient(rdb, time.Hour), mr
}

func TestRedisDurationCacheRoundTrip(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.PutMany(ctx, "32.066400,34.777700", map[string]int{
		"32.070000,34.780000": 120,
		"32.085300,34.781800": 480,
	}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := c.GetMany(ctx, "32.066400,34.777700", []string{
		"32.070000,34.780000",
		"32.085300,34.781800",
		"31.000000,35.000000",
		"32.070000,34.780000",
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got["32.070000,34.780000"] != 120 || got["32.085300,34.781800"] != 480 {
		t.Fatalf("got %v", got)
	}

	if ttl := mr.TTL("duration:32.066400,34.777700"); ttl != time.Hour {
		t.Fatalf("ttl = %s, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	got, err = c.GetMany(ctx, "32.066400,34.777700", []string{"32.070000,34.780000"})
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired entries, got %v", got)
	}
}

func TestRedisDurationCacheRejectsEmptyOrigin(t *testing.T) {
	c, _ := newTestRedisCache(t)
	if _, err := c.GetMany(context.Background(), "", []string{"x"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := c.PutMany(context.Background(), "", map[string]int{"x": 1}); err == nil {
		t.Fatalf("expected error")
	}
}
