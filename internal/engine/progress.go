package engine

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of resolution progress.
type Snapshot struct {
	Completed int
	Total     int
	Elapsed   time.Duration
}

// Remaining estimates the time left from the throughput so far. Elapsed time is
// counted in whole seconds plus one so the first second never divides by zero.
func (s Snapshot) Remaining() time.Duration {
	left := s.Total - s.Completed
	if left <= 0 {
		return 0
	}
	secs := int64(s.Elapsed/time.Second) + 1
	perSec := float64(s.Completed) / float64(secs)
	if perSec == 0 {
		return 0
	}
	return time.Duration(int64(float64(left)/perSec)) * time.Second
}

// Tracker counts processed candidates. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	completed int
	total     int
	start     time.Time
	now       func() time.Time
}

// NewTracker starts tracking total candidates from now.
func NewTracker(total int) *Tracker {
	return &Tracker{total: total, start: time.Now(), now: time.Now}
}

// Advance marks one candidate processed and returns the resulting snapshot.
func (t *Tracker) Advance() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	return t.snapshot()
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Tracker) snapshot() Snapshot {
	return Snapshot{
		Completed: t.completed,
		Total:     t.total,
		Elapsed:   t.now().Sub(t.start),
	}
}
