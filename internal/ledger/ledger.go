package ledger

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCompletion Kind = "completion"
	KindPurchase   Kind = "purchase"
)

// Event is one completion or purchase log row. Events are append-only;
// the only delete path is the bulk reset-progress operation. The ledger
// is the source of truth for counts — the legacy use counter on catalog
// entries is never trusted when events exist.
type Event struct {
	ID              uuid.UUID `json:"id" db:"id"`
	EntryID         uuid.UUID `json:"entry_id" db:"entry_id"`
	UserID          string    `json:"user_id" db:"user_id"`
	Kind            Kind      `json:"kind" db:"kind"`
	Amount          int       `json:"amount" db:"amount"`
	SecondaryAmount float64   `json:"secondary_amount" db:"secondary_amount"`
	OccurredAt      time.Time `json:"occurred_at" db:"occurred_at"`
}
