package proxy

import (
	"testing"
	"time"
)

func TestPool_Rotation(t *testing.T) {
	pool := NewPool([]string{"p1", "p2", "", "p1", "p3"}, time.Minute)

	if pool.Len() != 3 {
		t.Fatalf("Expected 3 distinct proxies, got %d", pool.Len())
	}
	for _, want := range []string{"p1", "p2", "p3", "p1"} {
		if got := pool.Next(); got != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	}
}

func TestPool_Cooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pool := NewPool([]string{"p1", "p2", "p3"}, 5*time.Minute)
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p2")
	for _, want := range []string{"p1", "p3", "p1", "p3"} {
		if got := pool.Next(); got != want {
			t.Errorf("Expected %s while p2 cools down, got %s", want, got)
		}
	}

	now = now.Add(5 * time.Minute)
	for _, want := range []string{"p1", "p2"} {
		if got := pool.Next(); got != want {
			t.Errorf("Expected %s after cooldown, got %s", want, got)
		}
	}

	pool.MarkFailed("p3")
	pool.MarkHealthy("p3")
	if got := pool.Next(); got != "p3" {
		t.Errorf("Expected healthy p3, got %s", got)
	}
}

func TestPool_AllFailed(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pool := NewPool([]string{"p1", "p2"}, time.Hour)
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p2")
	now = now.Add(time.Second)
	pool.MarkFailed("p1")

	if got := pool.Next(); got != "p2" {
		t.Errorf("Expected the proxy that failed longest ago, got %s", got)
	}
}

func TestPool_Empty(t *testing.T) {
	pool := NewPool(nil, time.Minute)
	if got := pool.Next(); got != "" {
		t.Errorf("Expected empty proxy, got %q", got)
	}
	pool.MarkFailed("")
}
