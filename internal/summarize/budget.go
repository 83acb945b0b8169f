package summarize

import (
	"sync"
	"time"
)

// Budget caps generation calls. The window resets daily so a long-lived
// daemon process cannot burn through API quota unattended.
type Budget struct {
	mu      sync.Mutex
	count   int
	max     int
	resetAt time.Time
}

// NewBudget creates a budget of max calls per day. max <= 0 means unlimited.
func NewBudget(max int) *Budget {
	return &Budget{
		max:     max,
		resetAt: time.Now().Add(24 * time.Hour),
	}
}

// Allow reports whether another generation call may be made, counting it.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Now().After(b.resetAt) {
		b.count = 0
		b.resetAt = time.Now().Add(24 * time.Hour)
	}

	if b.max > 0 && b.count >= b.max {
		return false
	}
	b.count++
	return true
}

// Used returns the calls consumed in the current window.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
