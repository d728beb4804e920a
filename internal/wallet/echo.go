package wallet

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultEchoWindow is how long a registered mutation stays eligible
	// for echo matching before a notification with the same totals is
	// treated as a genuine external update.
	DefaultEchoWindow = 5 * time.Second
	// DefaultTolerance absorbs float rounding noise on the secondary
	// total when comparing a notification against an expected value.
	DefaultTolerance = 0.01

	maxOutstanding = 16
)

type expectation struct {
	gems         int
	secondary    float64
	registeredAt time.Time
}

// EchoTracker decides whether a realtime wallet notification is the echo
// of a mutation this process just wrote, or authoritative external state.
// Writers register the expected resulting totals before submitting; a
// notification matching an unexpired registration is an echo and must be
// discarded, anything else applies.
//
// The tracker keeps a short queue of outstanding registrations per user,
// not a single slot, so two mutations issued back to back both get their
// echoes recognized. A match consumes its registration.
type EchoTracker struct {
	mu        sync.Mutex
	window    time.Duration
	tolerance float64
	now       func() time.Time
	pending   map[string][]expectation
}

func NewEchoTracker() *EchoTracker {
	return &EchoTracker{
		window:    DefaultEchoWindow,
		tolerance: DefaultTolerance,
		now:       time.Now,
		pending:   make(map[string][]expectation),
	}
}

// NewEchoTrackerAt builds a tracker with an injected clock and staleness
// window. Tests use this to step time without sleeping.
func NewEchoTrackerAt(now func() time.Time, window time.Duration) *EchoTracker {
	t := NewEchoTracker()
	t.now = now
	t.window = window
	return t
}

// Register records the totals a just-submitted mutation is expected to
// produce for userID.
func (t *EchoTracker) Register(userID string, gems int, secondary float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	queue := t.prune(t.pending[userID])
	queue = append(queue, expectation{gems: gems, secondary: secondary, registeredAt: t.now()})
	if len(queue) > maxOutstanding {
		queue = queue[len(queue)-maxOutstanding:]
	}
	t.pending[userID] = queue
}

// IsEcho reports whether a notification carrying these totals for userID
// matches an unexpired registration. A match is consumed so a later
// identical notification counts as external.
func (t *EchoTracker) IsEcho(userID string, gems int, secondary float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	queue := t.prune(t.pending[userID])
	for i, exp := range queue {
		if exp.gems == gems && math.Abs(exp.secondary-secondary) < t.tolerance {
			t.pending[userID] = append(queue[:i], queue[i+1:]...)
			return true
		}
	}
	t.pending[userID] = queue
	return false
}

// Outstanding returns how many unexpired registrations userID has.
func (t *EchoTracker) Outstanding(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	queue := t.prune(t.pending[userID])
	t.pending[userID] = queue
	return len(queue)
}

func (t *EchoTracker) prune(queue []expectation) []expectation {
	cutoff := t.now().Add(-t.window)
	kept := queue[:0]
	for _, exp := range queue {
		if exp.registeredAt.After(cutoff) {
			kept = append(kept, exp)
		}
	}
	return kept
}
