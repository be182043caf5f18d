package testutil

import (
	"context"
	"sync"
	"time"
)

// SleeperSpy records cooldown requests and returns immediately, so retry
// tests run in microseconds instead of waiting through real cooldowns.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SleeperSpy struct {
	mu    sync.Mutex
	slept []time.Duration
}

// Sleep records d and returns without waiting. A done context returns its
// error, matching the real sleeper's cancellation contract.
func (s *SleeperSpy) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return nil
}

// Slept returns a copy of the recorded cooldowns, in order.
func (s *SleeperSpy) Slept() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	slept := make([]time.Duration, len(s.slept))
	copy(slept, s.slept)
	return slept
}
