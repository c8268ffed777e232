package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	last time.Time
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu  sync.Mutex
	m   map[string]*entry
	now func() time.Time
}

func New() *Limiter { return &Limiter{m: make(map[string]*entry), now: time.Now} }

// Allow returns true if one token can be consumed for key. A new key starts
// with a full bucket of capacity tokens; later calls reuse the key's bucket.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(rate.Limit(refillPerSec), int(capacity))}
		l.m[key] = e
	}
	e.last = now
	return e.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than maxIdle and returns how many
// were removed.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for k, e := range l.m {
		if now.Sub(e.last) > maxIdle {
			delete(l.m, k)
			n++
		}
	}
	return n
}
