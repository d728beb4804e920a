package ledger

import (
	"time"

	"github.com/google/uuid"
)

// CountByEntry groups events by entry id and counts them. Total over any
// input, including nil: an entry with no events simply has no key.
func CountByEntry(events []Event) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(events))
	for _, ev := range events {
		counts[ev.EntryID]++
	}
	return counts
}

// Streak walks backward from today counting consecutive calendar days with
// at least one event, in the given location. Several events on the same
// day count once. No event today means streak zero; a gap of more than one
// day stops the walk at the gap.
func Streak(events []Event, today time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	days := make(map[string]struct{}, len(events))
	for _, ev := range events {
		days[ev.OccurredAt.In(loc).Format("2006-01-02")] = struct{}{}
	}

	streak := 0
	day := today.In(loc)
	for {
		if _, ok := days[day.Format("2006-01-02")]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Recap aggregates one calendar week of ledger activity. A week with no
// events yields a zero recap, never an absent one.
type Recap struct {
	WeekStart        time.Time `json:"week_start"`
	WeekEnd          time.Time `json:"week_end"`
	Earned           int       `json:"earned"`
	Spent            int       `json:"spent"`
	Net              int       `json:"net"`
	SecondaryEarned  float64   `json:"secondary_earned"`
	SecondarySpent   float64   `json:"secondary_spent"`
	SecondaryNet     float64   `json:"secondary_net"`
	CompletionEvents int       `json:"completion_events"`
	PurchaseEvents   int       `json:"purchase_events"`
}

// WeekStart returns the Sunday 00:00 local time starting the week that
// contains t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start.AddDate(0, 0, -int(start.Weekday()))
}

// WeeklyRecap sums earned (completions) against spent (purchases) for the
// week containing now, window [start, start+7d).
func WeeklyRecap(events []Event, now time.Time, loc *time.Location) Recap {
	if loc == nil {
		loc = time.Local
	}
	start := WeekStart(now, loc)
	end := start.AddDate(0, 0, 7)
	recap := Recap{WeekStart: start, WeekEnd: end}

	for _, ev := range events {
		at := ev.OccurredAt.In(loc)
		if at.Before(start) || !at.Before(end) {
			continue
		}
		switch ev.Kind {
		case KindCompletion:
			recap.Earned += ev.Amount
			recap.SecondaryEarned += ev.SecondaryAmount
			recap.CompletionEvents++
		case KindPurchase:
			recap.Spent += ev.Amount
			recap.SecondarySpent += ev.SecondaryAmount
			recap.PurchaseEvents++
		}
	}
	recap.Net = recap.Earned - recap.Spent
	recap.SecondaryNet = recap.SecondaryEarned - recap.SecondarySpent
	return recap
}

// Milestones places a wallet total on an ascending threshold ladder.
// current is the largest threshold reached, next the smallest one still
// ahead; either is nil when off the end of the ladder.
func Milestones(total int, thresholds []int) (current, next *int) {
	for i := range thresholds {
		t := thresholds[i]
		if t <= total {
			current = &thresholds[i]
		} else {
			next = &thresholds[i]
			break
		}
	}
	return current, next
}
