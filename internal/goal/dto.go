package goal

type CreateGoalRequest struct {
	Name            string   `json:"name" validate:"required"`
	TargetGems      int      `json:"target_gems" validate:"gt=0"`
	TargetSecondary *float64 `json:"target_secondary,omitempty"`
}

type UpdateGoalRequest struct {
	Name            *string  `json:"name,omitempty"`
	TargetGems      *int     `json:"target_gems,omitempty"`
	TargetSecondary *float64 `json:"target_secondary,omitempty"`
}
