package ratelimit

import (
	"testing"
	"time"
)

func TestAllowBurstThenRefill(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("ip:insights", 3, 1) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("ip:insights", 3, 1) {
		t.Fatalf("burst exhausted, expected deny")
	}
	if !l.Allow("other:insights", 3, 1) {
		t.Fatalf("keys must be independent")
	}

	now = now.Add(time.Second)
	if !l.Allow("ip:insights", 3, 1) {
		t.Fatalf("expected refill after 1s")
	}
	if l.Allow("ip:insights", 3, 1) {
		t.Fatalf("only one token refilled")
	}
}

func TestSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New()
	l.now = func() time.Time { return now }
	l.Allow("a", 1, 1)
	now = now.Add(time.Minute)
	l.Allow("b", 1, 1)

	if n := l.Sweep(30 * time.Second); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
}

func TestZeroRefillAllowsOnlyBurst(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("k", 2, 0) {
			t.Fatalf("request %d should pass", i)
		}
	}
	now = now.Add(time.Hour)
	if l.Allow("k", 2, 0) {
		t.Fatalf("no refill configured, expected deny")
	}
}

func TestFractionalRefill(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("k", 1, 0.5) {
		t.Fatalf("first request should pass")
	}
	now = now.Add(time.Second)
	if l.Allow("k", 1, 0.5) {
		t.Fatalf("half a token after 1s, expected deny")
	}
	now = now.Add(time.Second)
	if !l.Allow("k", 1, 0.5) {
		t.Fatalf("expected a full token after 2s")
	}
}
