package validator

import (
	"sync"
	"time"
)

// ─── Rate Limiter ───────────────────────────────────────────────────────────
// Scan attempts are tracked per (operator, remote address) in a sliding
// window. State is process-local: behind multiple instances each enforces
// its own window independently. A shared implementation can replace this
// one through the RateLimiter interface.

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"` // until the oldest attempt expires
}

// RateLimiter checks and records one attempt for a key.
type RateLimiter interface {
	CheckAndRecord(key string) Decision
}

// SlidingWindow is an in-memory sliding-window limiter. Entries older than
// the window are evicted lazily on each check.
type SlidingWindow struct {
	mu       sync.Mutex
	window   time.Duration
	limit    int
	attempts map[string][]time.Time
	now      func() time.Time
}

// NewSlidingWindow creates a limiter allowing limit attempts per window.
func NewSlidingWindow(window time.Duration, limit int) *SlidingWindow {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 10
	}
	return &SlidingWindow{
		window:   window,
		limit:    limit,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// CheckAndRecord evicts expired attempts for key, then either records the
// new attempt (allowed) or reports how long until the oldest attempt leaves
// the window (denied).
func (s *SlidingWindow) CheckAndRecord(key string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)

	kept := s.attempts[key][:0]
	for _, at := range s.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= s.limit {
		s.attempts[key] = kept
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: kept[0].Sub(cutoff),
		}
	}

	s.attempts[key] = append(kept, now)
	return Decision{
		Allowed:   true,
		Remaining: s.limit - len(kept) - 1,
	}
}
