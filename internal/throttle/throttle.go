// Package throttle bounds how fast a single caller, keyed by network origin,
// can use the service. Three independent policies:
//
//   - CreateLimiter: hard cap on mapping creation within a fixed window,
//     reporting quota fields so callers can back off deterministically.
//   - Delayer: progressively increasing artificial delay for every request
//     beyond an allowance, applied to all traffic as a generic deterrent.
//   - Guard: per-origin token bucket protecting the redirect hot path.
//
// All state is in-memory and resets with the process.
package throttle

import (
	"sync"
	"time"
)

// Decision reports the outcome of a hard-cap check.
type Decision struct {
	Allowed   bool
	Limit     int
	Current   int
	Remaining int
	ResetAt   time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// CreateLimiter caps successful create operations per origin within a fixed
// window. Only requests that proceed consume the budget: a request whose
// outcome is itself a rejection must be handed back via Refund.
type CreateLimiter struct {
	mu      sync.Mutex
	entries map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

type Option func(interface{ setClock(func() time.Time) })

// WithClock injects a clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c interface{ setClock(func() time.Time) }) { c.setClock(now) }
}

func NewCreateLimiter(limit int, win time.Duration, opts ...Option) *CreateLimiter {
	l := &CreateLimiter{
		entries: make(map[string]*window),
		limit:   limit,
		window:  win,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *CreateLimiter) setClock(now func() time.Time) { l.now = now }

func (l *CreateLimiter) Allow(origin string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.fresh(origin)
	if w.count >= l.limit {
		return Decision{
			Allowed:   false,
			Limit:     l.limit,
			Current:   w.count,
			Remaining: 0,
			ResetAt:   w.resetAt,
		}
	}
	w.count++
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Current:   w.count,
		Remaining: l.limit - w.count,
		ResetAt:   w.resetAt,
	}
}

// Refund releases a slot previously granted by Allow. Called when the guarded
// request ends in a rejection, so failed attempts do not exhaust the quota.
func (l *CreateLimiter) Refund(origin string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.entries[origin]; ok && w.count > 0 && l.now().Before(w.resetAt) {
		w.count--
	}
}

func (l *CreateLimiter) fresh(origin string) *window {
	now := l.now()
	w, ok := l.entries[origin]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.window)}
		l.entries[origin] = w
	}
	return w
}

// Delayer computes an increasing artificial delay for repeated requests from
// the same origin: zero within the allowance, then +step per extra request,
// capped at max. The caller performs the actual sleep; no lock is held while
// delaying.
type Delayer struct {
	mu      sync.Mutex
	entries map[string]*window
	window  time.Duration
	after   int
	step    time.Duration
	max     time.Duration
	now     func() time.Time
}

func NewDelayer(win time.Duration, after int, step, max time.Duration, opts ...Option) *Delayer {
	d := &Delayer{
		entries: make(map[string]*window),
		window:  win,
		after:   after,
		step:    step,
		max:     max,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Delayer) setClock(now func() time.Time) { d.now = now }

func (d *Delayer) Delay(origin string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	w, ok := d.entries[origin]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d.window)}
		d.entries[origin] = w
	}
	w.count++

	over := w.count - d.after
	if over <= 0 {
		return 0
	}
	delay := time.Duration(over) * d.step
	if delay > d.max {
		delay = d.max
	}
	return delay
}

// Cleanup drops expired windows from both policies. Safe to call from a
// janitor goroutine.
func (l *CreateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, w := range l.entries {
		if !now.Before(w.resetAt) {
			delete(l.entries, k)
		}
	}
}

func (d *Delayer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, w := range d.entries {
		if !now.Before(w.resetAt) {
			delete(d.entries, k)
		}
	}
}
