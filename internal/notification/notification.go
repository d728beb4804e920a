package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationGoalCompleted   NotificationType = "goal_completed"
	NotificationStreakMilestone NotificationType = "streak_milestone"
	NotificationWalletMilestone NotificationType = "wallet_milestone"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	Data      map[string]any   `json:"data" db:"data"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Token        string    `json:"token" db:"token"`
	Platform     string    `json:"platform" db:"platform"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}
