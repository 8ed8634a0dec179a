package throttle

import (
	"testing"
	"time"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestCreateLimiter_CapThenReject(t *testing.T) {
	clock, _ := fixedClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	l := NewCreateLimiter(2, 140*time.Second, WithClock(clock))

	d1 := l.Allow("10.0.0.1")
	if !d1.Allowed || d1.Remaining != 1 || d1.Current != 1 {
		t.Fatalf("first: %+v", d1)
	}
	d2 := l.Allow("10.0.0.1")
	if !d2.Allowed || d2.Remaining != 0 || d2.Current != 2 {
		t.Fatalf("second: %+v", d2)
	}
	d3 := l.Allow("10.0.0.1")
	if d3.Allowed {
		t.Fatalf("third request should be rejected: %+v", d3)
	}
	if d3.Remaining != 0 || d3.Limit != 2 || d3.Current != 2 {
		t.Fatalf("quota fields wrong on rejection: %+v", d3)
	}
	if !d3.ResetAt.Equal(d1.ResetAt) {
		t.Fatalf("reset time changed within the window: %v vs %v", d3.ResetAt, d1.ResetAt)
	}
}

func TestCreateLimiter_WindowElapses(t *testing.T) {
	clock, advance := fixedClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	l := NewCreateLimiter(2, 140*time.Second, WithClock(clock))

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k").Allowed {
		t.Fatal("expected rejection at cap")
	}

	advance(141 * time.Second)
	if d := l.Allow("k"); !d.Allowed || d.Remaining != 1 {
		t.Fatalf("expected fresh window after elapse: %+v", d)
	}
}

func TestCreateLimiter_OriginsAreIndependent(t *testing.T) {
	clock, _ := fixedClock(time.Now())
	l := NewCreateLimiter(1, time.Minute, WithClock(clock))

	if !l.Allow("a").Allowed {
		t.Fatal("first origin should pass")
	}
	if !l.Allow("b").Allowed {
		t.Fatal("second origin should pass")
	}
	if l.Allow("a").Allowed {
		t.Fatal("first origin should now be capped")
	}
}

func TestCreateLimiter_RefundReleasesSlot(t *testing.T) {
	clock, _ := fixedClock(time.Now())
	l := NewCreateLimiter(2, time.Minute, WithClock(clock))

	l.Allow("k")
	l.Allow("k")
	l.Refund("k")

	if d := l.Allow("k"); !d.Allowed {
		t.Fatalf("refunded slot should be reusable: %+v", d)
	}
	if d := l.Allow("k"); d.Allowed {
		t.Fatalf("cap should hold after the refunded slot is spent: %+v", d)
	}
}

func TestDelayer_RampAndCap(t *testing.T) {
	clock, _ := fixedClock(time.Now())
	d := NewDelayer(5*time.Minute, 1, 500*time.Millisecond, 5*time.Second, WithClock(clock))

	if got := d.Delay("k"); got != 0 {
		t.Fatalf("first request should not be delayed, got %v", got)
	}
	if got := d.Delay("k"); got != 500*time.Millisecond {
		t.Fatalf("second request: want 500ms, got %v", got)
	}
	if got := d.Delay("k"); got != time.Second {
		t.Fatalf("third request: want 1s, got %v", got)
	}
	for i := 0; i < 20; i++ {
		d.Delay("k")
	}
	if got := d.Delay("k"); got != 5*time.Second {
		t.Fatalf("delay should cap at 5s, got %v", got)
	}
}

func TestDelayer_WindowResets(t *testing.T) {
	clock, advance := fixedClock(time.Now())
	d := NewDelayer(5*time.Minute, 1, 500*time.Millisecond, 5*time.Second, WithClock(clock))

	d.Delay("k")
	d.Delay("k")
	advance(5*time.Minute + time.Second)
	if got := d.Delay("k"); got != 0 {
		t.Fatalf("fresh window should not be delayed, got %v", got)
	}
}

func TestGuard_BurstExhaustion(t *testing.T) {
	g := NewGuard(0.01, 2)

	if !g.Allow("k") || !g.Allow("k") {
		t.Fatal("burst should admit the first two requests")
	}
	if g.Allow("k") {
		t.Fatal("third immediate request should be rejected")
	}
	if !g.Allow("other") {
		t.Fatal("other origins keep their own bucket")
	}
}

func TestGuard_CleanupEvictsIdle(t *testing.T) {
	g := NewGuard(1, 1)
	g.idleTTL = time.Millisecond

	before := g.limiter("k")
	time.Sleep(3 * time.Millisecond)
	g.Cleanup()
	after := g.limiter("k")
	if before == after {
		t.Fatal("expected limiter to be recreated after cleanup")
	}
}
