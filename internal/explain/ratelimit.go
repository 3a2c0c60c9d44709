package explain

import (
	"sync"
	"time"
)

// RateLimitState tracks the remaining explanation-call budget and its
// reset time. It is injected into the Service rather than held as a
// package global so tests can pin it deterministically, and it is shared
// process-wide by every component that generates explanations.
type RateLimitState struct {
	mu        sync.Mutex
	remaining int
	resetAt   time.Time
	tracking  bool // false until a budget has been set or observed
}

// NewRateLimitState returns state with an initial call budget. A budget
// of zero or less means "unknown": calls are allowed until the provider
// reports otherwise.
func NewRateLimitState(budget int) *RateLimitState {
	s := &RateLimitState{}
	if budget > 0 {
		s.remaining = budget
		s.tracking = true
	}
	return s
}

// Allowed reports whether a generation call may be issued now. When it
// returns false, wait is the time until the budget resets.
func (s *RateLimitState) Allowed(now time.Time) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracking {
		return true, 0
	}
	if s.remaining > 0 {
		return true, 0
	}
	if now.Before(s.resetAt) {
		return false, s.resetAt.Sub(now)
	}
	// Reset window has passed; stop blocking until the provider reports
	// a fresh budget.
	s.tracking = false
	return true, 0
}

// Observe records rate-limit metadata reported by the provider.
func (s *RateLimitState) Observe(remaining int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.resetAt = resetAt
	s.tracking = true
}

// Consume decrements the remaining budget after an issued call.
func (s *RateLimitState) Consume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracking && s.remaining > 0 {
		s.remaining--
	}
}

// Snapshot returns the current remaining budget and reset time.
func (s *RateLimitState) Snapshot() (remaining int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining, s.resetAt
}
