package catalog

type CreateEntryRequest struct {
	Kind            Kind     `json:"kind" validate:"required,oneof=quest shop_item"`
	Name            string   `json:"name" validate:"required"`
	Tags            []string `json:"tags"`
	Reward          int      `json:"reward" validate:"gte=0"`
	SecondaryAmount float64  `json:"secondary_amount" validate:"gte=0"`
}

// UpdateEntryRequest carries only the fields the client wants to change.
// For a non-owned entry these become the override's patch fields; a nil
// field keeps inheriting from the canonical entry.
type UpdateEntryRequest struct {
	Name            *string  `json:"name,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Reward          *int     `json:"reward,omitempty"`
	SecondaryAmount *float64 `json:"secondary_amount,omitempty"`
}

type BoardResponse struct {
	Quests    []Effective `json:"quests"`
	ShopItems []Effective `json:"shop_items"`
}
