package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Guard is a per-origin token bucket for the redirect path, with idle-entry
// eviction so the map does not grow unbounded.
type Guard struct {
	mu           sync.Mutex
	entries      map[string]*guardEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type guardEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewGuard(rps float64, burst int) *Guard {
	return &Guard{
		entries:      make(map[string]*guardEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
}

func (g *Guard) Allow(origin string) bool {
	return g.limiter(origin).Allow()
}

func (g *Guard) limiter(origin string) *rate.Limiter {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if ent, ok := g.entries[origin]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(g.rps, g.burst)
	g.entries[origin] = &guardEntry{lim: lim, lastSeen: now}
	return lim
}

func (g *Guard) Cleanup() {
	cutoff := time.Now().Add(-g.idleTTL)

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, ent := range g.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(g.entries, k)
		}
	}
}

// StartJanitor periodically evicts idle origins until ctx is cancelled.
func (g *Guard) StartJanitor(ctx context.Context) {
	t := time.NewTicker(g.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				g.Cleanup()
			}
		}
	}()
}
