package catalog

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindQuest    Kind = "quest"
	KindShopItem Kind = "shop_item"
)

// Entry is a canonical catalog row. OwnerID == nil marks a seeded entry
// shared by every user; a concrete owner may mutate the row in place,
// everyone else customizes it through an Override.
type Entry struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Kind            Kind      `json:"kind" db:"kind"`
	Name            string    `json:"name" db:"name"`
	Tags            []string  `json:"tags" db:"tags"`
	Reward          int       `json:"reward" db:"reward"`
	SecondaryAmount float64   `json:"secondary_amount" db:"secondary_amount"`
	LegacyUseCount  int       `json:"legacy_use_count" db:"legacy_use_count"`
	OwnerID         *string   `json:"owner_id" db:"owner_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func (e Entry) Seeded() bool {
	return e.OwnerID == nil
}

func (e Entry) OwnedBy(userID string) bool {
	return e.OwnerID != nil && *e.OwnerID == userID
}

// Override is a per (user, entry) patch over a shared entry. A nil field
// inherits from the canonical row. At most one override exists per pair.
type Override struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	EntryID         uuid.UUID `json:"entry_id" db:"entry_id"`
	Name            *string   `json:"name" db:"name"`
	Tags            []string  `json:"tags" db:"tags"`
	Reward          *int      `json:"reward" db:"reward"`
	SecondaryAmount *float64  `json:"secondary_amount" db:"secondary_amount"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Empty reports whether the override patches nothing and can be skipped
// (or deleted) without changing the viewer's effective entry.
func (o Override) Empty() bool {
	return o.Name == nil && o.Tags == nil && o.Reward == nil && o.SecondaryAmount == nil
}

// Effective is what one viewer sees for one entry: the canonical row with
// the viewer's override folded in.
type Effective struct {
	ID              uuid.UUID `json:"id"`
	Kind            Kind      `json:"kind"`
	Name            string    `json:"name"`
	Tags            []string  `json:"tags"`
	Reward          int       `json:"reward"`
	SecondaryAmount float64   `json:"secondary_amount"`
	LegacyUseCount  int       `json:"legacy_use_count"`
	OwnerID         *string   `json:"owner_id"`
	Customized      bool      `json:"customized"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Merge folds an optional override into a canonical entry. Each override
// field wins only when set; id, owner, counters and timestamps always come
// from the canonical row. Pure: no I/O, no mutation of the inputs.
func Merge(e Entry, o *Override) Effective {
	eff := Effective{
		ID:              e.ID,
		Kind:            e.Kind,
		Name:            e.Name,
		Tags:            e.Tags,
		Reward:          e.Reward,
		SecondaryAmount: e.SecondaryAmount,
		LegacyUseCount:  e.LegacyUseCount,
		OwnerID:         e.OwnerID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if o == nil {
		return eff
	}
	if o.Name != nil {
		eff.Name = *o.Name
		eff.Customized = true
	}
	if o.Tags != nil {
		eff.Tags = o.Tags
		eff.Customized = true
	}
	if o.Reward != nil {
		eff.Reward = *o.Reward
		eff.Customized = true
	}
	if o.SecondaryAmount != nil {
		eff.SecondaryAmount = *o.SecondaryAmount
		eff.Customized = true
	}
	return eff
}

// HiddenSet holds the entry ids one user has locally deleted.
type HiddenSet map[uuid.UUID]struct{}

func NewHiddenSet(ids ...uuid.UUID) HiddenSet {
	s := make(HiddenSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s HiddenSet) Hide(id uuid.UUID) {
	s[id] = struct{}{}
}

func (s HiddenSet) Visible(id uuid.UUID) bool {
	_, hidden := s[id]
	return !hidden
}

// NormalizeTags dedupes and sorts a tag list so tag sets compare equal
// regardless of input order. nil stays nil (meaning "inherit").
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
