package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"questBoardAPI/internal/ledger"
	"questBoardAPI/internal/realtime"
	"questBoardAPI/internal/wallet"

	"github.com/jackc/pgx/v5/pgxpool"
)

const TableWallets = "wallets"

// DefaultMilestones is the gem ladder shown alongside the wallet.
var DefaultMilestones = []int{100, 250, 500, 1000, 2500, 5000}

// GoalEvaluator is what the wallet layer notifies when totals change.
type GoalEvaluator interface {
	Evaluate(ctx context.Context, userID string, gems int, secondary float64) error
}

// WalletService owns wallet rows and the echo-suppression state. The
// tracker lives here as an injected field, never as package state, so
// independent instances can exist side by side in tests.
type WalletService struct {
	db     *pgxpool.Pool
	hub    *realtime.Hub
	echoes *wallet.EchoTracker
	goals  GoalEvaluator
	sub    *realtime.Subscription

	thresholds []int
}

func NewWalletService(db *pgxpool.Pool, hub *realtime.Hub) *WalletService {
	return &WalletService{
		db:         db,
		hub:        hub,
		echoes:     wallet.NewEchoTracker(),
		thresholds: DefaultMilestones,
	}
}

func (s *WalletService) SetGoalEvaluator(goals GoalEvaluator) {
	s.goals = goals
}

// Start subscribes the service to the wallet change feed so it can apply
// external updates and discard its own echoes.
func (s *WalletService) Start() {
	s.sub = s.hub.Subscribe(TableWallets, nil, s.HandleChange)
}

func (s *WalletService) Stop() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
}

// GetWallet returns the user's wallet, creating a zero one on first
// access.
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*wallet.Wallet, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	query := `
	INSERT INTO wallets (user_id, gems, secondary, updated_at)
	VALUES ($1, 0, 0, now())
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING user_id, gems, secondary, updated_at
	`

	w := &wallet.Wallet{}
	err := s.db.QueryRow(ctx, query, userID).Scan(&w.UserID, &w.Gems, &w.Secondary, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// WalletOverview is the wallet plus its position on the milestone ladder.
type WalletOverview struct {
	Wallet           *wallet.Wallet `json:"wallet"`
	CurrentMilestone *int           `json:"current_milestone"`
	NextMilestone    *int           `json:"next_milestone"`
}

func (s *WalletService) GetOverview(ctx context.Context, userID string) (*WalletOverview, error) {
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, next := ledger.Milestones(w.Gems, s.thresholds)
	return &WalletOverview{Wallet: w, CurrentMilestone: current, NextMilestone: next}, nil
}

// Adjust moves the wallet by the given deltas. There is no floor: a
// purchase may push either total negative.
func (s *WalletService) Adjust(ctx context.Context, userID string, deltaGems int, deltaSecondary float64) (*wallet.Wallet, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}
	if _, err := s.GetWallet(ctx, userID); err != nil {
		return nil, err
	}

	query := `
	UPDATE wallets
	SET gems = gems + $2, secondary = secondary + $3, updated_at = now()
	WHERE user_id = $1
	RETURNING user_id, gems, secondary, updated_at
	`

	w := &wallet.Wallet{}
	err := s.db.QueryRow(ctx, query, userID, deltaGems, deltaSecondary).Scan(&w.UserID, &w.Gems, &w.Secondary, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust wallet: %w", err)
	}

	s.NoteMutation(ctx, w)
	return w, nil
}

// Reset zeroes both totals.
func (s *WalletService) Reset(ctx context.Context, userID string) (*wallet.Wallet, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}
	if _, err := s.GetWallet(ctx, userID); err != nil {
		return nil, err
	}

	query := `
	UPDATE wallets
	SET gems = 0, secondary = 0, updated_at = now()
	WHERE user_id = $1
	RETURNING user_id, gems, secondary, updated_at
	`

	w := &wallet.Wallet{}
	err := s.db.QueryRow(ctx, query, userID).Scan(&w.UserID, &w.Gems, &w.Secondary, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reset wallet: %w", err)
	}

	s.NoteMutation(ctx, w)
	return w, nil
}

// NoteMutation is called after this process writes new wallet totals:
// register the expected totals so the change-feed echo is recognized,
// announce the change, and evaluate goals against the new totals.
func (s *WalletService) NoteMutation(ctx context.Context, w *wallet.Wallet) {
	s.echoes.Register(w.UserID, w.Gems, w.Secondary)
	s.hub.Publish(realtime.Change{Op: realtime.OpUpdate, Table: TableWallets, Row: w})
	s.evaluateGoals(ctx, w.UserID, w.Gems, w.Secondary)
}

// HandleChange is the change-feed entry point. An echo of our own write
// is discarded; anything else is authoritative external state (another
// device, another instance) and gets applied.
func (s *WalletService) HandleChange(c realtime.Change) {
	w, ok := c.Row.(*wallet.Wallet)
	if !ok {
		return
	}

	if s.echoes.IsEcho(w.UserID, w.Gems, w.Secondary) {
		walletEchoesSuppressed.Inc()
		return
	}

	walletExternalApplied.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.evaluateGoals(ctx, w.UserID, w.Gems, w.Secondary)
}

func (s *WalletService) evaluateGoals(ctx context.Context, userID string, gems int, secondary float64) {
	if s.goals == nil {
		return
	}
	if err := s.goals.Evaluate(ctx, userID, gems, secondary); err != nil {
		log.Printf("WalletService: goal evaluation failed for %s: %v", userID, err)
	}
}
