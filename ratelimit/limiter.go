// Package ratelimit guards the public invite endpoints with fixed-window
// counters keyed by (endpoint, token hash, client address). It is process
// local and advisory: abuse mitigation only, no core invariant depends on
// it.
package ratelimit

import (
	"log"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

type Limiter struct {
	entries cmap.ConcurrentMap[string, entry]
	limit   int
	window  time.Duration
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		entries: cmap.New[entry](),
		limit:   limit,
		window:  window,
	}
}

// Check counts one request against the (endpoint, tokenHash, clientIP)
// window. Denied requests do not increment the counter any further.
func (l *Limiter) Check(endpoint, tokenHash, clientIP string) Result {
	key := endpoint + ":" + tokenHash + ":" + clientIP
	var res Result
	l.entries.Upsert(key, entry{}, func(exists bool, current entry, _ entry) entry {
		now := time.Now()
		if !exists || now.After(current.resetAt) {
			current = entry{count: 1, resetAt: now.Add(l.window)}
			res = Result{Allowed: true, Remaining: l.limit - 1, ResetAt: current.resetAt}
			return current
		}
		if current.count >= l.limit {
			res = Result{Allowed: false, Remaining: 0, ResetAt: current.resetAt}
			return current
		}
		current.count++
		res = Result{Allowed: true, Remaining: l.limit - current.count, ResetAt: current.resetAt}
		return current
	})
	return res
}

// Sweep evicts windows that have elapsed and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := time.Now()
	removed := 0
	for item := range l.entries.IterBuffered() {
		key := item.Key
		l.entries.RemoveCb(key, func(_ string, v entry, exists bool) bool {
			if exists && now.After(v.resetAt) {
				removed++
				return true
			}
			return false
		})
	}
	return removed
}

// StartSweeper runs Sweep on a fixed schedule. Delay has no correctness
// impact, it only bounds memory.
func (l *Limiter) StartSweeper(interval time.Duration) {
	go func() {
		for range time.Tick(interval) {
			if removed := l.Sweep(); removed > 0 {
				log.Printf("Rate limiter: swept %d expired entries", removed)
			}
		}
	}()
}
