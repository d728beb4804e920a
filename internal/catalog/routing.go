package catalog

// EditRoute says where a user's edit of an entry must land.
type EditRoute int

const (
	// EditCanonical updates the shared row in place (acting user owns it).
	EditCanonical EditRoute = iota
	// EditOverride upserts a per-user override row, leaving the shared row
	// untouched for everyone else.
	EditOverride
)

// DeleteRoute says what a user's delete of an entry must do.
type DeleteRoute int

const (
	// DeleteCanonical removes the row outright (acting user owns it).
	DeleteCanonical DeleteRoute = iota
	// DeleteHide inserts a hidden mark for the acting user only.
	DeleteHide
)

// RouteEdit picks the mutation target for an edit. Owners mutate the
// canonical row; seeded entries and entries owned by someone else get a
// per-user override instead.
func RouteEdit(e Entry, userID string) EditRoute {
	if e.OwnedBy(userID) {
		return EditCanonical
	}
	return EditOverride
}

// RouteDelete picks the mutation target for a delete. "Delete" on an owned
// entry removes the canonical row; on anything else it only hides the
// entry from the acting user's view.
func RouteDelete(e Entry, userID string) DeleteRoute {
	if e.OwnedBy(userID) {
		return DeleteCanonical
	}
	return DeleteHide
}
