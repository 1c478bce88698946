package monitor

import "sync"

// Streak is the consecutive failure state of one cadence
type Streak struct {
	Failures  int    `json:"failures"`
	LastError string `json:"last_error,omitempty"`
}

// FailureTracker keeps track of consecutive failed iterations per cadence.
// It is safe for concurrent use.
type FailureTracker struct {
	mu      sync.Mutex
	streaks map[string]Streak
}

// NewFailureTracker creates a new tracker.
func NewFailureTracker() *FailureTracker {
	return &FailureTracker{
		streaks: make(map[string]Streak),
	}
}

// Update records the outcome of one iteration. A nil error resets the
// streak. It returns the updated consecutive failure count.
func (t *FailureTracker) Update(key string, err error) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err == nil {
		delete(t.streaks, key)
		return 0
	}

	s := t.streaks[key]
	s.Failures++
	s.LastError = err.Error()
	t.streaks[key] = s
	return s.Failures
}

// Get returns the current streak of a cadence.
func (t *FailureTracker) Get(key string) Streak {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.streaks[key]
}

// Reset clears the streak of a cadence.
func (t *FailureTracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.streaks, key)
}

// Escalate reports whether a streak of n failures should be logged loudly:
// the first failure and then every every-th one.
func Escalate(n, every int) bool {
	if n <= 0 {
		return false
	}
	if n == 1 || every <= 0 {
		return true
	}
	return n%every == 0
}
