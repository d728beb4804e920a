package goal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestSatisfiedGemsOnly(t *testing.T) {
	g := Goal{TargetGems: 500}

	assert.False(t, g.Satisfied(499, 0))
	assert.True(t, g.Satisfied(500, 0))
	assert.True(t, g.Satisfied(501, 0))
}

func TestSatisfiedWithSecondaryTarget(t *testing.T) {
	g := Goal{TargetGems: 500, TargetSecondary: floatPtr(20)}

	assert.False(t, g.Satisfied(500, 19.9))
	assert.True(t, g.Satisfied(500, 20))
}

func TestAdvanceCompletes(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	g := Goal{TargetGems: 500}

	assert.False(t, g.Advance(499, 0, now))
	assert.False(t, g.IsCompleted)

	assert.True(t, g.Advance(500, 0, now))
	assert.True(t, g.IsCompleted)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, now, *g.CompletedAt)
}

// Once complete, a goal stays complete through any later wallet state.
func TestAdvanceIsMonotonic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	g := Goal{TargetGems: 500}

	require.True(t, g.Advance(500, 0, now))
	completedAt := *g.CompletedAt

	// Wallet drains below the target: nothing changes.
	assert.False(t, g.Advance(0, 0, now.Add(time.Hour)))
	assert.True(t, g.IsCompleted)
	assert.Equal(t, completedAt, *g.CompletedAt)

	// Crossing again does not re-fire or move the completion time.
	assert.False(t, g.Advance(900, 0, now.Add(2*time.Hour)))
	assert.Equal(t, completedAt, *g.CompletedAt)
}
