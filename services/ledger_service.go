package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"questBoardAPI/internal/catalog"
	"questBoardAPI/internal/ledger"
	"questBoardAPI/internal/realtime"
	"questBoardAPI/internal/wallet"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableLedger = "ledger_events"

// streakMilestones are the streak lengths worth a push.
var streakMilestones = map[int]bool{3: true, 7: true, 14: true, 30: true, 100: true}

// LedgerService owns the append-only completion/purchase log and the
// wallet movements it implies. A log mutation and its wallet adjustment
// commit in one transaction; everything derived (counts, streaks, recap)
// is computed from the events in internal/ledger.
type LedgerService struct {
	db            *pgxpool.Pool
	hub           *realtime.Hub
	wallets       *WalletService
	notifications *NotificationService
}

func NewLedgerService(db *pgxpool.Pool, hub *realtime.Hub, wallets *WalletService, notifications *NotificationService) *LedgerService {
	return &LedgerService{db: db, hub: hub, wallets: wallets, notifications: notifications}
}

// LogCompletion records one completion of a quest for userID and credits
// the wallet with the user's effective reward (override applied).
func (s *LedgerService) LogCompletion(ctx context.Context, userID string, entryID uuid.UUID) (*ledger.Event, *wallet.Wallet, error) {
	return s.logEvent(ctx, userID, entryID, ledger.KindCompletion)
}

// LogPurchase records one purchase of a shop item for userID and debits
// the wallet with the user's effective price. There is no balance check:
// the wallet may go negative.
func (s *LedgerService) LogPurchase(ctx context.Context, userID string, entryID uuid.UUID) (*ledger.Event, *wallet.Wallet, error) {
	return s.logEvent(ctx, userID, entryID, ledger.KindPurchase)
}

func (s *LedgerService) logEvent(ctx context.Context, userID string, entryID uuid.UUID, kind ledger.Kind) (*ledger.Event, *wallet.Wallet, error) {
	if userID == "" {
		return nil, nil, ErrAuthRequired
	}

	eff, entry, err := s.effectiveEntry(ctx, userID, entryID)
	if err != nil {
		return nil, nil, err
	}
	if kind == ledger.KindCompletion && entry.Kind != catalog.KindQuest {
		return nil, nil, fmt.Errorf("entry %s is not a quest", entryID)
	}
	if kind == ledger.KindPurchase && entry.Kind != catalog.KindShopItem {
		return nil, nil, fmt.Errorf("entry %s is not a shop item", entryID)
	}

	event := &ledger.Event{
		ID:              uuid.New(),
		EntryID:         entryID,
		UserID:          userID,
		Kind:            kind,
		Amount:          eff.Reward,
		SecondaryAmount: eff.SecondaryAmount,
		OccurredAt:      time.Now(),
	}

	deltaGems := event.Amount
	deltaSecondary := event.SecondaryAmount
	if kind == ledger.KindPurchase {
		deltaGems = -deltaGems
		deltaSecondary = -deltaSecondary
	}

	if _, err := s.wallets.GetWallet(ctx, userID); err != nil {
		return nil, nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO ledger_events (id, entry_id, user_id, kind, amount, secondary_amount, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.EntryID, event.UserID, event.Kind, event.Amount, event.SecondaryAmount, event.OccurredAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert ledger event: %w", err)
	}

	w := &wallet.Wallet{}
	err = tx.QueryRow(ctx,
		`UPDATE wallets SET gems = gems + $2, secondary = secondary + $3, updated_at = now()
		 WHERE user_id = $1
		 RETURNING user_id, gems, secondary, updated_at`,
		userID, deltaGems, deltaSecondary,
	).Scan(&w.UserID, &w.Gems, &w.Secondary, &w.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to move wallet: %w", err)
	}

	// The shared use counter predates the ledger and survives only for
	// old clients; ledger-derived counts supersede it everywhere here.
	_, err = tx.Exec(ctx, `UPDATE catalog_entries SET legacy_use_count = legacy_use_count + 1 WHERE id = $1`, entryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bump legacy counter: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	switch kind {
	case ledger.KindCompletion:
		questCompletionsTotal.Inc()
	case ledger.KindPurchase:
		shopPurchasesTotal.Inc()
	}

	s.hub.Publish(realtime.Change{Op: realtime.OpInsert, Table: TableLedger, Row: event})
	s.wallets.NoteMutation(ctx, w)

	if kind == ledger.KindCompletion {
		s.checkStreakMilestone(ctx, userID, entryID, eff.Name)
	}

	return event, w, nil
}

// EntryStats pairs the ledger-derived count and streak for one entry.
type EntryStats struct {
	EntryID uuid.UUID `json:"entry_id"`
	Count   int       `json:"count"`
	Streak  int       `json:"streak"`
}

// GetStats derives per-entry counts and completion streaks from the
// user's events. These counts are the canonical ones; the legacy counter
// on catalog entries is ignored. A failed read degrades to empty stats.
func (s *LedgerService) GetStats(ctx context.Context, userID string) ([]EntryStats, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	events := s.loadEvents(ctx, userID)
	counts := ledger.CountByEntry(events)

	byEntry := make(map[uuid.UUID][]ledger.Event, len(counts))
	for _, ev := range events {
		byEntry[ev.EntryID] = append(byEntry[ev.EntryID], ev)
	}

	now := time.Now()
	stats := make([]EntryStats, 0, len(counts))
	for entryID, entryEvents := range byEntry {
		stats = append(stats, EntryStats{
			EntryID: entryID,
			Count:   counts[entryID],
			Streak:  ledger.Streak(entryEvents, now, time.Local),
		})
	}
	return stats, nil
}

// GetWeeklyRecap sums the current calendar week. A week with no events
// returns a zero recap, not an error.
func (s *LedgerService) GetWeeklyRecap(ctx context.Context, userID string) (ledger.Recap, error) {
	if userID == "" {
		return ledger.Recap{}, ErrAuthRequired
	}
	events := s.loadEvents(ctx, userID)
	return ledger.WeeklyRecap(events, time.Now(), time.Local), nil
}

// ResetProgress wipes the user's ledger and zeroes the wallet in one
// transaction. The only path that ever deletes ledger rows.
func (s *LedgerService) ResetProgress(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrAuthRequired
	}
	if _, err := s.wallets.GetWallet(ctx, userID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_events WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete ledger events: %w", err)
	}

	w := &wallet.Wallet{}
	err = tx.QueryRow(ctx,
		`UPDATE wallets SET gems = 0, secondary = 0, updated_at = now()
		 WHERE user_id = $1
		 RETURNING user_id, gems, secondary, updated_at`,
		userID,
	).Scan(&w.UserID, &w.Gems, &w.Secondary, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to zero wallet: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.hub.Publish(realtime.Change{Op: realtime.OpDelete, Table: TableLedger, Row: map[string]any{"user_id": userID}})
	s.wallets.NoteMutation(ctx, w)
	return nil
}

// loadEvents reads the user's ledger. Derivations must stay total over
// whatever data is available, so a failed read logs and degrades to an
// empty event list instead of propagating.
func (s *LedgerService) loadEvents(ctx context.Context, userID string) []ledger.Event {
	rows, err := s.db.Query(ctx,
		`SELECT id, entry_id, user_id, kind, amount, secondary_amount, occurred_at
		 FROM ledger_events
		 WHERE user_id = $1
		 ORDER BY occurred_at DESC`,
		userID,
	)
	if err != nil {
		log.Printf("LedgerService: failed to load events for %s: %v", userID, err)
		return nil
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		var ev ledger.Event
		if err := rows.Scan(&ev.ID, &ev.EntryID, &ev.UserID, &ev.Kind, &ev.Amount, &ev.SecondaryAmount, &ev.OccurredAt); err != nil {
			log.Printf("LedgerService: failed to scan event for %s: %v", userID, err)
			return nil
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		log.Printf("LedgerService: event rows for %s: %v", userID, err)
		return nil
	}
	return events
}

func (s *LedgerService) effectiveEntry(ctx context.Context, userID string, entryID uuid.UUID) (*catalog.Effective, *catalog.Entry, error) {
	entry := &catalog.Entry{}
	err := s.db.QueryRow(ctx,
		`SELECT id, kind, name, tags, reward, secondary_amount, legacy_use_count, owner_id, created_at, updated_at
		 FROM catalog_entries WHERE id = $1`,
		entryID,
	).Scan(
		&entry.ID, &entry.Kind, &entry.Name, &entry.Tags, &entry.Reward,
		&entry.SecondaryAmount, &entry.LegacyUseCount, &entry.OwnerID,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}

	var override *catalog.Override
	o := catalog.Override{}
	err = s.db.QueryRow(ctx,
		`SELECT id, user_id, entry_id, name, tags, reward, secondary_amount, created_at, updated_at
		 FROM entry_overrides WHERE user_id = $1 AND entry_id = $2`,
		userID, entryID,
	).Scan(&o.ID, &o.UserID, &o.EntryID, &o.Name, &o.Tags, &o.Reward, &o.SecondaryAmount, &o.CreatedAt, &o.UpdatedAt)
	if err == nil {
		override = &o
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("failed to get override: %w", err)
	}

	eff := catalog.Merge(*entry, override)
	return &eff, entry, nil
}

func (s *LedgerService) checkStreakMilestone(ctx context.Context, userID string, entryID uuid.UUID, entryName string) {
	if s.notifications == nil {
		return
	}

	var entryEvents []ledger.Event
	for _, ev := range s.loadEvents(ctx, userID) {
		if ev.EntryID == entryID && ev.Kind == ledger.KindCompletion {
			entryEvents = append(entryEvents, ev)
		}
	}

	streak := ledger.Streak(entryEvents, time.Now(), time.Local)
	if streakMilestones[streak] {
		s.notifications.NotifyStreakMilestone(ctx, userID, entryName, streak)
	}
}
