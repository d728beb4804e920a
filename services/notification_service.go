package services

import (
	"context"
	"fmt"
	"log"

	"questBoardAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushProvider delivers a push to a set of device tokens. FCM in
// production, a fake in tests, nil when push is not configured.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db       *pgxpool.Pool
	provider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(provider PushProvider) {
	s.provider = provider
}

// RegisterDevice stores a device token for the user, replacing ownership
// if the token was previously registered by another account.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID string, req *notification.RegisterDeviceRequest) error {
	if userID == "" {
		return ErrAuthRequired
	}

	query := `
	INSERT INTO device_tokens (id, user_id, token, platform, registered_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, registered_at = now()
	`
	_, err := s.db.Exec(ctx, query, uuid.New(), userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// NotifyStreakMilestone pushes when a quest streak reaches a milestone.
func (s *NotificationService) NotifyStreakMilestone(ctx context.Context, userID, entryName string, streak int) {
	title := fmt.Sprintf("%d day streak!", streak)
	body := fmt.Sprintf("You've kept %q going for %d days in a row.", entryName, streak)
	s.push(ctx, userID, notification.NotificationStreakMilestone, title, body, map[string]any{
		"entry_name": entryName,
		"streak":     streak,
	})
}

// NotifyGoalCompleted pushes when a goal crosses its targets.
func (s *NotificationService) NotifyGoalCompleted(ctx context.Context, userID, goalName string) {
	title := "Goal reached!"
	body := fmt.Sprintf("Your goal %q is complete.", goalName)
	s.push(ctx, userID, notification.NotificationGoalCompleted, title, body, map[string]any{
		"goal_name": goalName,
	})
}

func (s *NotificationService) push(ctx context.Context, userID string, typ notification.NotificationType, title, body string, data map[string]any) {
	if s.provider == nil {
		return
	}

	tokens, err := s.listTokens(ctx, userID)
	if err != nil {
		log.Printf("NotificationService: failed to load tokens for %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data["type"] = string(typ)
	if err := s.provider.SendPush(ctx, tokens, title, body, data); err != nil {
		log.Printf("NotificationService: push %s to %s failed: %v", typ, userID, err)
	}
}

func (s *NotificationService) listTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, token, platform, registered_at FROM device_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.RegisteredAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
