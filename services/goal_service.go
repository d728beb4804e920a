package services

import (
	"context"
	"errors"
	"fmt"

	"questBoardAPI/internal/goal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GoalService owns per-user goals. Completion is driven by Evaluate,
// which the wallet layer calls whenever totals change; the SQL guard on
// is_completed keeps the transition one-way no matter how totals move
// afterwards.
type GoalService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewGoalService(db *pgxpool.Pool, notifications *NotificationService) *GoalService {
	return &GoalService{db: db, notifications: notifications}
}

func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]goal.Goal, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, target_gems, target_secondary, is_completed, completed_at, created_at, updated_at
		 FROM goals WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []goal.Goal{}
	for rows.Next() {
		var g goal.Goal
		err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetGems, &g.TargetSecondary,
			&g.IsCompleted, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *GoalService) CreateGoal(ctx context.Context, userID string, req *goal.CreateGoalRequest) (*goal.Goal, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	g := &goal.Goal{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO goals (id, user_id, name, target_gems, target_secondary)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, name, target_gems, target_secondary, is_completed, completed_at, created_at, updated_at`,
		uuid.New(), userID, req.Name, req.TargetGems, req.TargetSecondary,
	).Scan(&g.ID, &g.UserID, &g.Name, &g.TargetGems, &g.TargetSecondary,
		&g.IsCompleted, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) UpdateGoal(ctx context.Context, userID string, goalID uuid.UUID, req *goal.UpdateGoalRequest) (*goal.Goal, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	g := &goal.Goal{}
	err := s.db.QueryRow(ctx,
		`UPDATE goals
		 SET name = COALESCE($3, name),
		     target_gems = COALESCE($4, target_gems),
		     target_secondary = COALESCE($5, target_secondary),
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, name, target_gems, target_secondary, is_completed, completed_at, created_at, updated_at`,
		goalID, userID, req.Name, req.TargetGems, req.TargetSecondary,
	).Scan(&g.ID, &g.UserID, &g.Name, &g.TargetGems, &g.TargetSecondary,
		&g.IsCompleted, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, userID string, goalID uuid.UUID) error {
	if userID == "" {
		return ErrAuthRequired
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Evaluate marks every incomplete goal the totals now satisfy. The
// is_completed guard makes the transition monotonic: a goal completed
// once stays completed through any later wallet decrease.
func (s *GoalService) Evaluate(ctx context.Context, userID string, gems int, secondary float64) error {
	rows, err := s.db.Query(ctx,
		`UPDATE goals
		 SET is_completed = true, completed_at = now(), updated_at = now()
		 WHERE user_id = $1
		   AND is_completed = false
		   AND target_gems <= $2
		   AND (target_secondary IS NULL OR target_secondary <= $3)
		 RETURNING id, name`,
		userID, gems, secondary,
	)
	if err != nil {
		return fmt.Errorf("failed to evaluate goals: %w", err)
	}
	defer rows.Close()

	type completed struct {
		id   uuid.UUID
		name string
	}
	var done []completed
	for rows.Next() {
		var c completed
		if err := rows.Scan(&c.id, &c.name); err != nil {
			return fmt.Errorf("failed to scan completed goal: %w", err)
		}
		done = append(done, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range done {
		goalsCompletedTotal.Inc()
		if s.notifications != nil {
			s.notifications.NotifyGoalCompleted(ctx, userID, c.name)
		}
	}
	return nil
}
