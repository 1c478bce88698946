package ratelimit

import (
	"testing"
	"time"
)

// newTestLimiter returns a limiter driven by a settable clock
func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *time.Time) {
	t.Helper()
	l := New(cfg)
	t.Cleanup(l.Stop)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestNew_DefaultBurst(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 10})
	if l.burst != 10 {
		t.Errorf("expected burst=10, got %v", l.burst)
	}
}

func TestNew_CustomBurst(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 10, Burst: 20})
	if l.burst != 20 {
		t.Errorf("expected burst=20, got %v", l.burst)
	}
}

func TestAllow_WithinLimit(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 10})
	for i := 0; i < 10; i++ {
		if !l.Allow("collect") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestAllow_ExceedsLimit(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 5})
	for i := 0; i < 5; i++ {
		l.Allow("collect")
	}
	if l.Allow("collect") {
		t.Error("request should be denied after exceeding limit")
	}
}

func TestAllow_DifferentKeys(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 2})
	l.Allow("a")
	l.Allow("a")
	if l.Allow("a") {
		t.Error("key a should be limited")
	}
	if !l.Allow("b") {
		t.Error("key b should be independent")
	}
}

func TestAllow_Refill(t *testing.T) {
	l, now := newTestLimiter(t, Config{PerMinute: 60, Burst: 1})
	if !l.Allow("k") {
		t.Fatal("first request should pass")
	}
	if l.Allow("k") {
		t.Fatal("second request should be limited")
	}

	*now = now.Add(500 * time.Millisecond)
	if l.Allow("k") {
		t.Fatal("half a token is not enough")
	}

	*now = now.Add(time.Second)
	if !l.Allow("k") {
		t.Error("token should have refilled")
	}
}

func TestAllowN(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 10})
	if !l.AllowN("k", 7) {
		t.Fatal("7 of 10 should pass")
	}
	if l.AllowN("k", 4) {
		t.Error("4 of remaining 3 should fail")
	}
	if got := l.Remaining("k"); got != 3 {
		t.Errorf("remaining = %d, want 3", got)
	}
}

func TestRemaining_UnknownKey(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 30})
	if got := l.Remaining("nobody"); got != 30 {
		t.Errorf("remaining = %d, want 30", got)
	}
}

func TestRetryAfter(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 60, Burst: 1})
	if d := l.RetryAfter("k"); d != 0 {
		t.Errorf("unknown key should not wait, got %v", d)
	}
	l.Allow("k")
	if d := l.RetryAfter("k"); d != time.Second {
		t.Errorf("retry after = %v, want 1s", d)
	}
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(t, Config{PerMinute: 1})
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("should be limited")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("reset should restore the bucket")
	}
}

func TestStop_Idempotent(t *testing.T) {
	l := New(Config{PerMinute: 1})
	l.Stop()
	l.Stop()
}
