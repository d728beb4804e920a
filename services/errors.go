package services

import "errors"

var (
	// ErrNotFound — the referenced row no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrAuthRequired — a mutation was attempted with no resolvable user.
	// Mutations fail fast rather than writing ownerless data.
	ErrAuthRequired = errors.New("authentication required")
	// ErrPermissionDenied — an in-place update targeted a canonical row
	// the acting user does not own. Terminal; never retried.
	ErrPermissionDenied = errors.New("permission denied")
)
