package catalog

import (
	"sort"

	"github.com/google/uuid"
)

// Board is one viewer's reconciled snapshot of the catalog: canonical rows,
// the viewer's overrides and the viewer's hidden set, ready to merge into
// the effective lists the UI renders. It supports both refresh strategies:
// a full rebuild from freshly loaded rows, and patching in a single row
// change as it arrives on the realtime feed. Both must converge on the
// same effective state.
type Board struct {
	ViewerID  string
	Entries   map[uuid.UUID]Entry
	Overrides map[uuid.UUID]Override
	Hidden    HiddenSet
}

func NewBoard(viewerID string, entries []Entry, overrides []Override, hidden HiddenSet) *Board {
	b := &Board{
		ViewerID:  viewerID,
		Entries:   make(map[uuid.UUID]Entry, len(entries)),
		Overrides: make(map[uuid.UUID]Override, len(overrides)),
		Hidden:    hidden,
	}
	if b.Hidden == nil {
		b.Hidden = NewHiddenSet()
	}
	for _, e := range entries {
		b.Entries[e.ID] = e
	}
	for _, o := range overrides {
		if o.UserID == viewerID {
			b.Overrides[o.EntryID] = o
		}
	}
	return b
}

// UpsertEntry patches in a canonical row insert or update.
func (b *Board) UpsertEntry(e Entry) {
	b.Entries[e.ID] = e
}

// RemoveEntry patches in a canonical row delete. The viewer's override and
// hidden mark for the entry become dangling and are dropped with it.
func (b *Board) RemoveEntry(id uuid.UUID) {
	delete(b.Entries, id)
	delete(b.Overrides, id)
	delete(b.Hidden, id)
}

// UpsertOverride patches in an override insert or update. Overrides
// belonging to other users are ignored: they never affect this viewer.
func (b *Board) UpsertOverride(o Override) {
	if o.UserID != b.ViewerID {
		return
	}
	b.Overrides[o.EntryID] = o
}

func (b *Board) RemoveOverride(entryID uuid.UUID) {
	delete(b.Overrides, entryID)
}

// MarkHidden patches in a hidden mark. Idempotent.
func (b *Board) MarkHidden(entryID uuid.UUID) {
	b.Hidden.Hide(entryID)
}

// Effective returns the visible, merged entries of one kind, ordered by
// creation time and id for a stable listing.
func (b *Board) Effective(kind Kind) []Effective {
	out := make([]Effective, 0, len(b.Entries))
	for id, e := range b.Entries {
		if e.Kind != kind || !b.Hidden.Visible(id) {
			continue
		}
		var ov *Override
		if o, ok := b.Overrides[id]; ok {
			ov = &o
		}
		out = append(out, Merge(e, ov))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
