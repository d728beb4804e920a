package goal

import (
	"time"

	"github.com/google/uuid"
)

// Goal is a per-user savings target. It completes once, when the wallet
// crosses the gem target and, if configured, the secondary target too.
// Completion is monotonic: later wallet decreases never reopen it.
type Goal struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	Name            string     `json:"name" db:"name"`
	TargetGems      int        `json:"target_gems" db:"target_gems"`
	TargetSecondary *float64   `json:"target_secondary" db:"target_secondary"`
	IsCompleted     bool       `json:"is_completed" db:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Satisfied reports whether the wallet totals reach every configured
// target. The secondary threshold only participates when set.
func (g Goal) Satisfied(gems int, secondary float64) bool {
	if gems < g.TargetGems {
		return false
	}
	if g.TargetSecondary != nil && secondary < *g.TargetSecondary {
		return false
	}
	return true
}

// Advance transitions the goal to completed when the totals qualify and
// it is not already complete. Returns true when the state changed. A
// completed goal never transitions back, whatever the totals.
func (g *Goal) Advance(gems int, secondary float64, now time.Time) bool {
	if g.IsCompleted || !g.Satisfied(gems, secondary) {
		return false
	}
	g.IsCompleted = true
	g.CompletedAt = &now
	return true
}
