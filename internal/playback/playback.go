// Package playback supplies playback positions to sync sessions.
//
// The lyrics package never keeps time itself; whatever drives a session asks a
// [PositionSource] for the elapsed position at the moment of each tap.
package playback

import (
	"sync"
	"time"
)

// PositionSource reports the elapsed playback position.
type PositionSource interface {
	Position() time.Duration
}

// Stopwatch is a pausable [PositionSource] standing in for the backing track's player.
//
// Safe for concurrent use: the TUI reads it from tick commands while key handlers toggle it.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	elapsed time.Duration
	running bool
}

// NewStopwatch returns a paused stopwatch at zero. A nil clock defaults to [time.Now].
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Start resumes counting. Starting a running stopwatch is a no-op.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.started = s.now()
	s.running = true
}

// Pause freezes the position. Pausing a paused stopwatch is a no-op.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.elapsed += s.now().Sub(s.started)
	s.running = false
}

// Toggle flips between running and paused and reports whether it is now running.
func (s *Stopwatch) Toggle() bool {
	if s.Running() {
		s.Pause()
		return false
	}
	s.Start()
	return true
}

// Reset pauses and rewinds to zero.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = 0
	s.running = false
}

// Running reports whether the stopwatch is counting.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Position implements [PositionSource].
func (s *Stopwatch) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.elapsed
	}
	return s.elapsed + s.now().Sub(s.started)
}

// Millis converts a position to whole milliseconds.
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}
