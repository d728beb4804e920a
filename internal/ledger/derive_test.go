package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventAt(entryID uuid.UUID, kind Kind, amount int, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		EntryID:    entryID,
		UserID:     "user_abc",
		Kind:       kind,
		Amount:     amount,
		OccurredAt: at,
	}
}

func TestCountByEntry(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	counts := CountByEntry([]Event{
		eventAt(a, KindCompletion, 10, now),
		eventAt(a, KindCompletion, 10, now.Add(time.Minute)),
		eventAt(b, KindPurchase, 5, now),
	})

	assert.Equal(t, 2, counts[a])
	assert.Equal(t, 1, counts[b])

	// An entry with no events has no key and reads as zero.
	assert.Equal(t, 0, counts[uuid.New()])
}

func TestCountByEntryEmpty(t *testing.T) {
	assert.Empty(t, CountByEntry(nil))
}

func TestStreakConsecutiveDays(t *testing.T) {
	entry := uuid.New()
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	events := []Event{
		eventAt(entry, KindCompletion, 10, today),
		eventAt(entry, KindCompletion, 10, today.AddDate(0, 0, -1)),
	}

	assert.Equal(t, 2, Streak(events, today, time.UTC))
}

func TestStreakStopsAtGap(t *testing.T) {
	entry := uuid.New()
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	// Today plus two days ago: the missing day breaks the run.
	events := []Event{
		eventAt(entry, KindCompletion, 10, today),
		eventAt(entry, KindCompletion, 10, today.AddDate(0, 0, -2)),
	}

	assert.Equal(t, 1, Streak(events, today, time.UTC))
}

func TestStreakZeroWithoutToday(t *testing.T) {
	entry := uuid.New()
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	events := []Event{
		eventAt(entry, KindCompletion, 10, today.AddDate(0, 0, -1)),
		eventAt(entry, KindCompletion, 10, today.AddDate(0, 0, -2)),
	}

	assert.Equal(t, 0, Streak(events, today, time.UTC))
	assert.Equal(t, 0, Streak(nil, today, time.UTC))
}

func TestStreakSameDayCountsOnce(t *testing.T) {
	entry := uuid.New()
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	events := []Event{
		eventAt(entry, KindCompletion, 10, today.Add(-time.Hour)),
		eventAt(entry, KindCompletion, 10, today.Add(-2*time.Hour)),
		eventAt(entry, KindCompletion, 10, today.AddDate(0, 0, -1)),
	}

	assert.Equal(t, 2, Streak(events, today, time.UTC))
}

func TestWeekStart(t *testing.T) {
	// Tuesday 2026-03-10 belongs to the week starting Sunday 2026-03-08.
	tuesday := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	start := WeekStart(tuesday, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start, WeekStart(start, time.UTC))
}

func TestWeeklyRecapEmpty(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	recap := WeeklyRecap(nil, now, time.UTC)

	assert.Equal(t, 0, recap.Earned)
	assert.Equal(t, 0, recap.Spent)
	assert.Equal(t, 0, recap.Net)
	assert.Equal(t, 0, recap.CompletionEvents)
	require.False(t, recap.WeekStart.IsZero())
}

func TestWeeklyRecapSumsWindow(t *testing.T) {
	entry := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	events := []Event{
		eventAt(entry, KindCompletion, 10, now),
		eventAt(entry, KindPurchase, 4, now.Add(-time.Hour)),
		// Previous week, must not count.
		eventAt(entry, KindCompletion, 100, now.AddDate(0, 0, -8)),
	}

	recap := WeeklyRecap(events, now, time.UTC)

	assert.Equal(t, 10, recap.Earned)
	assert.Equal(t, 4, recap.Spent)
	assert.Equal(t, 6, recap.Net)
	assert.Equal(t, 1, recap.CompletionEvents)
	assert.Equal(t, 1, recap.PurchaseEvents)
}

func TestWeeklyRecapWindowBoundaries(t *testing.T) {
	entry := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	start := WeekStart(now, time.UTC)

	// The window is closed at the start and open at the end.
	events := []Event{
		eventAt(entry, KindCompletion, 1, start),
		eventAt(entry, KindCompletion, 2, start.AddDate(0, 0, 7)),
		eventAt(entry, KindCompletion, 4, start.AddDate(0, 0, 7).Add(-time.Second)),
	}

	recap := WeeklyRecap(events, now, time.UTC)

	assert.Equal(t, 5, recap.Earned)
}

func TestMilestones(t *testing.T) {
	ladder := []int{100, 250, 500, 1000}

	current, next := Milestones(300, ladder)
	require.NotNil(t, current)
	require.NotNil(t, next)
	assert.Equal(t, 250, *current)
	assert.Equal(t, 500, *next)

	current, next = Milestones(0, ladder)
	assert.Nil(t, current)
	require.NotNil(t, next)
	assert.Equal(t, 100, *next)

	current, next = Milestones(5000, ladder)
	require.NotNil(t, current)
	assert.Equal(t, 1000, *current)
	assert.Nil(t, next)

	current, next = Milestones(250, ladder)
	assert.Equal(t, 250, *current)
	assert.Equal(t, 500, *next)
}
