package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func seededEntry(kind Kind, name string) Entry {
	return Entry{
		ID:              uuid.New(),
		Kind:            kind,
		Name:            name,
		Tags:            []string{"daily"},
		Reward:          10,
		SecondaryAmount: 2.5,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMergeNoOverride(t *testing.T) {
	e := seededEntry(KindQuest, "Stretch")

	eff := Merge(e, nil)

	assert.Equal(t, e.ID, eff.ID)
	assert.Equal(t, "Stretch", eff.Name)
	assert.Equal(t, 10, eff.Reward)
	assert.False(t, eff.Customized)
}

func TestMergePerField(t *testing.T) {
	e := seededEntry(KindQuest, "Stretch")

	// Only the reward is overridden; everything else inherits.
	o := &Override{EntryID: e.ID, Reward: intPtr(25)}
	eff := Merge(e, o)

	assert.Equal(t, "Stretch", eff.Name)
	assert.Equal(t, []string{"daily"}, eff.Tags)
	assert.Equal(t, 25, eff.Reward)
	assert.Equal(t, 2.5, eff.SecondaryAmount)
	assert.True(t, eff.Customized)
}

func TestMergeAllFields(t *testing.T) {
	e := seededEntry(KindShopItem, "Coffee")
	o := &Override{
		EntryID:         e.ID,
		Name:            strPtr("Fancy coffee"),
		Tags:            []string{"treat"},
		Reward:          intPtr(40),
		SecondaryAmount: floatPtr(5.0),
	}

	eff := Merge(e, o)

	assert.Equal(t, "Fancy coffee", eff.Name)
	assert.Equal(t, []string{"treat"}, eff.Tags)
	assert.Equal(t, 40, eff.Reward)
	assert.Equal(t, 5.0, eff.SecondaryAmount)
	assert.True(t, eff.Customized)
}

func TestMergeIdentityNeverOverridden(t *testing.T) {
	owner := "user_abc"
	e := seededEntry(KindQuest, "Run")
	e.OwnerID = &owner
	e.LegacyUseCount = 7

	o := &Override{EntryID: e.ID, Name: strPtr("Sprint")}
	eff := Merge(e, o)

	assert.Equal(t, e.ID, eff.ID)
	assert.Equal(t, &owner, eff.OwnerID)
	assert.Equal(t, 7, eff.LegacyUseCount)
	assert.Equal(t, e.CreatedAt, eff.CreatedAt)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	e := seededEntry(KindQuest, "Read")
	o := &Override{EntryID: e.ID, Name: strPtr("Read more")}

	_ = Merge(e, o)

	assert.Equal(t, "Read", e.Name)
	assert.Equal(t, "Read more", *o.Name)
}

func TestOverrideEmpty(t *testing.T) {
	assert.True(t, Override{}.Empty())
	assert.False(t, Override{Reward: intPtr(1)}.Empty())
	assert.False(t, Override{Tags: []string{}}.Empty())
}

func TestHiddenSet(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	hidden := NewHiddenSet(a)

	assert.False(t, hidden.Visible(a))
	assert.True(t, hidden.Visible(b))

	// Hiding twice stays hidden, no error.
	hidden.Hide(a)
	hidden.Hide(b)
	assert.False(t, hidden.Visible(b))
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Equal(t, []string{}, NormalizeTags([]string{}))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{"b", "a", "b"}))
}

func TestRouteEdit(t *testing.T) {
	owner := "user_abc"
	seeded := seededEntry(KindQuest, "Stretch")
	owned := seededEntry(KindQuest, "Mine")
	owned.OwnerID = &owner

	assert.Equal(t, EditOverride, RouteEdit(seeded, owner))
	assert.Equal(t, EditCanonical, RouteEdit(owned, owner))
	assert.Equal(t, EditOverride, RouteEdit(owned, "someone_else"))
}

func TestRouteDelete(t *testing.T) {
	owner := "user_abc"
	seeded := seededEntry(KindQuest, "Stretch")
	owned := seededEntry(KindQuest, "Mine")
	owned.OwnerID = &owner

	assert.Equal(t, DeleteHide, RouteDelete(seeded, owner))
	assert.Equal(t, DeleteCanonical, RouteDelete(owned, owner))
	assert.Equal(t, DeleteHide, RouteDelete(owned, "someone_else"))
}

func TestBoardEffectiveFiltersAndMerges(t *testing.T) {
	viewer := "user_abc"
	q1 := seededEntry(KindQuest, "Stretch")
	q2 := seededEntry(KindQuest, "Run")
	q2.CreatedAt = q1.CreatedAt.Add(time.Hour)
	item := seededEntry(KindShopItem, "Coffee")

	b := NewBoard(viewer,
		[]Entry{q1, q2, item},
		[]Override{
			{UserID: viewer, EntryID: q1.ID, Reward: intPtr(99)},
			{UserID: "other", EntryID: q2.ID, Reward: intPtr(1)},
		},
		NewHiddenSet(item.ID),
	)

	quests := b.Effective(KindQuest)
	require.Len(t, quests, 2)
	assert.Equal(t, q1.ID, quests[0].ID)
	assert.Equal(t, 99, quests[0].Reward)
	// The other user's override never leaks into this viewer's board.
	assert.Equal(t, 10, quests[1].Reward)

	assert.Empty(t, b.Effective(KindShopItem))
}

// A board refreshed by reloading everything and a board patched change by
// change must land on the same effective state.
func TestBoardReloadAndPatchConverge(t *testing.T) {
	viewer := "user_abc"
	q1 := seededEntry(KindQuest, "Stretch")
	q2 := seededEntry(KindQuest, "Run")
	q2.CreatedAt = q1.CreatedAt.Add(time.Hour)

	patched := NewBoard(viewer, []Entry{q1}, nil, nil)
	patched.UpsertEntry(q2)
	ov := Override{UserID: viewer, EntryID: q2.ID, Name: strPtr("Sprint")}
	patched.UpsertOverride(ov)
	patched.MarkHidden(q1.ID)

	reloaded := NewBoard(viewer, []Entry{q1, q2}, []Override{ov}, NewHiddenSet(q1.ID))

	assert.Equal(t, reloaded.Effective(KindQuest), patched.Effective(KindQuest))
}

func TestBoardRemoveEntryDropsDependents(t *testing.T) {
	viewer := "user_abc"
	q := seededEntry(KindQuest, "Stretch")

	b := NewBoard(viewer, []Entry{q},
		[]Override{{UserID: viewer, EntryID: q.ID, Reward: intPtr(5)}},
		NewHiddenSet(q.ID),
	)

	b.RemoveEntry(q.ID)

	assert.Empty(t, b.Entries)
	assert.Empty(t, b.Overrides)
	assert.True(t, b.Hidden.Visible(q.ID))
}
