package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	return New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

type statsFixture struct {
	CPUPercent float64 `json:"cpu_percent"`
}

func TestResourceStats_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.PutResourceStats(ctx, "test-1", statsFixture{CPUPercent: 42.5}); err != nil {
		t.Fatalf("PutResourceStats: %v", err)
	}
	var got statsFixture
	ok, err := c.GetResourceStats(ctx, "test-1", &got)
	if err != nil {
		t.Fatalf("GetResourceStats: %v", err)
	}
	if !ok || got.CPUPercent != 42.5 {
		t.Fatalf("expected cached stats, got ok=%v got=%+v", ok, got)
	}
}

func TestGetTestResult_Miss(t *testing.T) {
	c := newTestCache(t)
	var out statsFixture
	ok, err := c.GetTestResult(context.Background(), "missing", &out)
	if err != nil {
		t.Fatalf("GetTestResult: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss for unset key")
	}
}

func TestStability_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	type stability struct {
		Score float64 `json:"score"`
	}
	if err := c.PutStability(ctx, "repro-1", stability{Score: 0.9}); err != nil {
		t.Fatalf("PutStability: %v", err)
	}
	var got stability
	ok, err := c.GetStability(ctx, "repro-1", &got)
	if err != nil || !ok || got.Score != 0.9 {
		t.Fatalf("expected cached stability, ok=%v err=%v got=%+v", ok, err, got)
	}
}
