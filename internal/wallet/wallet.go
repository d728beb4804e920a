package wallet

import "time"

// Wallet is one user's balance. Totals have no floor: purchases may push
// either currency negative. Exactly one wallet exists per user, created
// lazily on first access.
type Wallet struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Gems      int       `json:"gems" db:"gems"`
	Secondary float64   `json:"secondary" db:"secondary"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
