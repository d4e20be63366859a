package engine

import "sync"

// Throttle caps how many results may share one resolved value, which keeps
// wildcard DNS from flooding the output. Safe for concurrent use.
type Throttle struct {
	mu         sync.Mutex
	limit      int
	counts     map[string]int
	suppressed map[string]int
}

// NewThrottle allows a value until its count exceeds limit, so limit+1 results
// per value get through.
func NewThrottle(limit int) *Throttle {
	return &Throttle{
		limit:      limit,
		counts:     make(map[string]int),
		suppressed: make(map[string]int),
	}
}

// Allow records one more result for value and reports whether it may be
// emitted. Once suppressed, a value's count no longer changes.
func (t *Throttle) Allow(value string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.counts[value] > t.limit {
		t.suppressed[value]++
		return false
	}
	t.counts[value]++
	return true
}

// Suppressed returns a copy of the per-value count of dropped results.
func (t *Throttle) Suppressed() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]int, len(t.suppressed))
	for v, n := range t.suppressed {
		out[v] = n
	}
	return out
}
