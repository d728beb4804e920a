package wallet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock steps time manually so staleness tests never sleep.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTrackerWithClock() (*EchoTracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	return NewEchoTrackerAt(clock.now, DefaultEchoWindow), clock
}

func TestEchoWithinWindowIsDiscarded(t *testing.T) {
	tracker, clock := newTrackerWithClock()

	tracker.Register("user_abc", 110, 5.0)
	clock.advance(time.Second)

	assert.True(t, tracker.IsEcho("user_abc", 110, 5.0))
}

func TestEchoConsumedOnce(t *testing.T) {
	tracker, _ := newTrackerWithClock()

	tracker.Register("user_abc", 110, 5.0)

	assert.True(t, tracker.IsEcho("user_abc", 110, 5.0))
	// The same totals again are no longer covered by the registration.
	assert.False(t, tracker.IsEcho("user_abc", 110, 5.0))
}

func TestExpiredRegistrationApplies(t *testing.T) {
	tracker, clock := newTrackerWithClock()

	tracker.Register("user_abc", 110, 5.0)
	clock.advance(10 * time.Second)

	assert.False(t, tracker.IsEcho("user_abc", 110, 5.0))
	assert.Equal(t, 0, tracker.Outstanding("user_abc"))
}

func TestMismatchedTotalsApply(t *testing.T) {
	tracker, _ := newTrackerWithClock()

	tracker.Register("user_abc", 110, 5.0)

	assert.False(t, tracker.IsEcho("user_abc", 200, 5.0))
	// The registration survives a non-match for the real echo.
	assert.True(t, tracker.IsEcho("user_abc", 110, 5.0))
}

func TestSecondaryTolerance(t *testing.T) {
	tracker, _ := newTrackerWithClock()

	tracker.Register("user_abc", 110, 5.0)

	// Rounding noise below the tolerance still matches.
	assert.True(t, tracker.IsEcho("user_abc", 110, 5.004))

	tracker.Register("user_abc", 110, 5.0)
	assert.False(t, tracker.IsEcho("user_abc", 110, 5.2))
}

func TestTwoMutationsBackToBack(t *testing.T) {
	tracker, _ := newTrackerWithClock()

	// Two quick completions each register their expected totals; both
	// echoes must be recognized whatever order they arrive in.
	tracker.Register("user_abc", 110, 5.0)
	tracker.Register("user_abc", 120, 5.0)

	assert.True(t, tracker.IsEcho("user_abc", 120, 5.0))
	assert.True(t, tracker.IsEcho("user_abc", 110, 5.0))
	assert.Equal(t, 0, tracker.Outstanding("user_abc"))
}

func TestUsersAreIsolated(t *testing.T) {
	tracker, _ := newTrackerWithClock()

	tracker.Register("user_abc", 110, 5.0)

	assert.False(t, tracker.IsEcho("user_xyz", 110, 5.0))
	assert.True(t, tracker.IsEcho("user_abc", 110, 5.0))
}

func TestOutstandingPrunes(t *testing.T) {
	tracker, clock := newTrackerWithClock()

	tracker.Register("user_abc", 110, 5.0)
	clock.advance(time.Second)
	tracker.Register("user_abc", 120, 5.0)
	assert.Equal(t, 2, tracker.Outstanding("user_abc"))

	clock.advance(DefaultEchoWindow)
	assert.Equal(t, 0, tracker.Outstanding("user_abc"))
}

func TestQueueCapBoundsMemory(t *testing.T) {
	tracker, _ := newTrackerWithClock()

	for i := 0; i < 100; i++ {
		tracker.Register("user_abc", i, 0)
	}

	assert.LessOrEqual(t, tracker.Outstanding("user_abc"), 16)
	// The newest registrations are the ones kept.
	assert.True(t, tracker.IsEcho("user_abc", 99, 0))
	assert.False(t, tracker.IsEcho("user_abc", 0, 0))
}
