package profiler

import (
	"sync"
	"time"
)

// Stopwatch accumulates elapsed wall-clock time across pause/resume cycles.
// It is safe for concurrent use.
type Stopwatch struct {
	mu      sync.Mutex
	count   time.Duration
	running bool
	last    time.Time
	now     func() time.Time
}

// NewStopwatch creates a stopwatch with a zero count.
//
// Arguments:
// - autoStart: Start counting immediately when true; otherwise the stopwatch
// starts paused and counts from the first Resume.
//
// Returns:
// - The stopwatch.
func NewStopwatch(autoStart bool) *Stopwatch {
	s := &Stopwatch{now: time.Now}
	if autoStart {
		s.running = true
		s.last = s.now()
	}
	return s
}

// Elapsed returns the accumulated count, including the current running stretch.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accumulate()
	return s.count
}

// Seconds returns Elapsed as floating-point seconds.
func (s *Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}

// Resolution returns the smallest interval the stopwatch can represent.
func (s *Stopwatch) Resolution() time.Duration {
	return time.Nanosecond
}

// Pause stops counting. It does nothing when already paused.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.accumulate()
		s.running = false
	}
}

// Resume continues counting. It does nothing when already running.
func (s *Stopwatch) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.running = true
		s.last = s.now()
	}
}

// Reset zeroes the count. A running stopwatch keeps running unless stop is true.
func (s *Stopwatch) Reset(stop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count = 0
	if stop {
		s.running = false
	} else if s.running {
		s.last = s.now()
	}
}

// Running reports whether the stopwatch is counting.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// accumulate folds the current running stretch into count. Callers hold mu.
func (s *Stopwatch) accumulate() {
	if !s.running {
		return
	}
	t := s.now()
	s.count += t.Sub(s.last)
	s.last = t
}
