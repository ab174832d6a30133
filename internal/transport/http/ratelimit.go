package http

import "time"

// rateLimiter counts inbound realtime frames per fixed window. It is owned by
// a single read loop.
type rateLimiter struct {
	limit   int
	window  time.Duration
	counter int
	started time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window}
}

func (r *rateLimiter) allow(now time.Time) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if r.started.IsZero() || now.Sub(r.started) >= r.window {
		r.started = now
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
