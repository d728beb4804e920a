package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"questBoardAPI/internal/catalog"
	"questBoardAPI/internal/realtime"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TableEntries     = "catalog_entries"
	TableOverrides   = "entry_overrides"
	TableHiddenMarks = "hidden_marks"
)

type CatalogService struct {
	db  *pgxpool.Pool
	hub *realtime.Hub
}

func NewCatalogService(db *pgxpool.Pool, hub *realtime.Hub) *CatalogService {
	return &CatalogService{db: db, hub: hub}
}

// GetBoard loads everything one viewer's board needs and reconciles it:
// all canonical entries, the viewer's overrides, the viewer's hidden
// marks. Merge and visibility run in internal/catalog.
func (s *CatalogService) GetBoard(ctx context.Context, userID string) (*catalog.BoardResponse, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	entries, err := s.listEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog entries: %w", err)
	}

	overrides, err := s.listOverrides(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	hidden, err := s.listHidden(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hidden marks: %w", err)
	}

	board := catalog.NewBoard(userID, entries, overrides, hidden)
	return &catalog.BoardResponse{
		Quests:    board.Effective(catalog.KindQuest),
		ShopItems: board.Effective(catalog.KindShopItem),
	}, nil
}

func (s *CatalogService) GetEntry(ctx context.Context, entryID uuid.UUID) (*catalog.Entry, error) {
	query := `
	SELECT id, kind, name, tags, reward, secondary_amount, legacy_use_count, owner_id, created_at, updated_at
	FROM catalog_entries
	WHERE id = $1
	`

	e := &catalog.Entry{}
	err := s.db.QueryRow(ctx, query, entryID).Scan(
		&e.ID,
		&e.Kind,
		&e.Name,
		&e.Tags,
		&e.Reward,
		&e.SecondaryAmount,
		&e.LegacyUseCount,
		&e.OwnerID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}
	return e, nil
}

// CreateEntry inserts a user-owned entry. Seeded (ownerless) rows only
// ever come from SeedCatalog.
func (s *CatalogService) CreateEntry(ctx context.Context, userID string, req *catalog.CreateEntryRequest) (*catalog.Entry, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	entry := &catalog.Entry{
		ID:              uuid.New(),
		Kind:            req.Kind,
		Name:            req.Name,
		Tags:            catalog.NormalizeTags(req.Tags),
		Reward:          req.Reward,
		SecondaryAmount: req.SecondaryAmount,
		OwnerID:         &userID,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	query := `
	INSERT INTO catalog_entries (id, kind, name, tags, reward, secondary_amount, legacy_use_count, owner_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9)
	`
	_, err := s.db.Exec(ctx, query,
		entry.ID,
		entry.Kind,
		entry.Name,
		entry.Tags,
		entry.Reward,
		entry.SecondaryAmount,
		entry.OwnerID,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog entry: %w", err)
	}

	s.hub.Publish(realtime.Change{Op: realtime.OpInsert, Table: TableEntries, Row: entry})
	return entry, nil
}

// UpdateEntry applies an edit on behalf of userID. Owners update the
// canonical row in place; everyone else gets a per-user override upserted,
// leaving the shared row untouched.
func (s *CatalogService) UpdateEntry(ctx context.Context, userID string, entryID uuid.UUID, req *catalog.UpdateEntryRequest) (*catalog.Effective, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	switch catalog.RouteEdit(*entry, userID) {
	case catalog.EditCanonical:
		return s.updateCanonical(ctx, entry, req)
	default:
		return s.upsertOverride(ctx, userID, entry, req)
	}
}

func (s *CatalogService) updateCanonical(ctx context.Context, entry *catalog.Entry, req *catalog.UpdateEntryRequest) (*catalog.Effective, error) {
	if req.Name != nil {
		entry.Name = *req.Name
	}
	if req.Tags != nil {
		entry.Tags = catalog.NormalizeTags(req.Tags)
	}
	if req.Reward != nil {
		entry.Reward = *req.Reward
	}
	if req.SecondaryAmount != nil {
		entry.SecondaryAmount = *req.SecondaryAmount
	}
	entry.UpdatedAt = time.Now()

	query := `
	UPDATE catalog_entries
	SET name = $2, tags = $3, reward = $4, secondary_amount = $5, updated_at = $6
	WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		entry.ID,
		entry.Name,
		entry.Tags,
		entry.Reward,
		entry.SecondaryAmount,
		entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update catalog entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	s.hub.Publish(realtime.Change{Op: realtime.OpUpdate, Table: TableEntries, Row: entry})
	eff := catalog.Merge(*entry, nil)
	return &eff, nil
}

func (s *CatalogService) upsertOverride(ctx context.Context, userID string, entry *catalog.Entry, req *catalog.UpdateEntryRequest) (*catalog.Effective, error) {
	override := &catalog.Override{
		ID:              uuid.New(),
		UserID:          userID,
		EntryID:         entry.ID,
		Name:            req.Name,
		Tags:            catalog.NormalizeTags(req.Tags),
		Reward:          req.Reward,
		SecondaryAmount: req.SecondaryAmount,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	// One override per (user, entry): later edits fold into the existing
	// row, a nil patch field keeps whatever the row already carries.
	query := `
	INSERT INTO entry_overrides (id, user_id, entry_id, name, tags, reward, secondary_amount, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (user_id, entry_id) DO UPDATE SET
		name = COALESCE(EXCLUDED.name, entry_overrides.name),
		tags = COALESCE(EXCLUDED.tags, entry_overrides.tags),
		reward = COALESCE(EXCLUDED.reward, entry_overrides.reward),
		secondary_amount = COALESCE(EXCLUDED.secondary_amount, entry_overrides.secondary_amount),
		updated_at = EXCLUDED.updated_at
	RETURNING id, user_id, entry_id, name, tags, reward, secondary_amount, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		override.ID,
		override.UserID,
		override.EntryID,
		override.Name,
		override.Tags,
		override.Reward,
		override.SecondaryAmount,
		override.CreatedAt,
		override.UpdatedAt,
	).Scan(
		&override.ID,
		&override.UserID,
		&override.EntryID,
		&override.Name,
		&override.Tags,
		&override.Reward,
		&override.SecondaryAmount,
		&override.CreatedAt,
		&override.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert override: %w", err)
	}

	s.hub.Publish(realtime.Change{Op: realtime.OpUpdate, Table: TableOverrides, Row: override})
	eff := catalog.Merge(*entry, override)
	return &eff, nil
}

// DeleteEntry removes an owned entry outright, or hides a shared one from
// the acting user's view. Hiding an already hidden entry is a no-op.
func (s *CatalogService) DeleteEntry(ctx context.Context, userID string, entryID uuid.UUID) error {
	if userID == "" {
		return ErrAuthRequired
	}

	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	if catalog.RouteDelete(*entry, userID) == catalog.DeleteCanonical {
		tag, err := s.db.Exec(ctx, `DELETE FROM catalog_entries WHERE id = $1`, entryID)
		if err != nil {
			return fmt.Errorf("failed to delete catalog entry: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		s.hub.Publish(realtime.Change{Op: realtime.OpDelete, Table: TableEntries, Row: entry})
		return nil
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO hidden_marks (user_id, entry_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, entryID,
	)
	if err != nil {
		return fmt.Errorf("failed to hide catalog entry: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.hub.Publish(realtime.Change{Op: realtime.OpInsert, Table: TableHiddenMarks, Row: map[string]any{
			"user_id":  userID,
			"entry_id": entryID,
		}})
	}
	return nil
}

// SeedCatalog inserts the shared starter entries once. A catalog that
// already carries seeded rows is left alone.
func (s *CatalogService) SeedCatalog(ctx context.Context) error {
	var seeded bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM catalog_entries WHERE owner_id IS NULL)`).Scan(&seeded)
	if err != nil {
		return fmt.Errorf("failed to check seeded catalog: %w", err)
	}
	if seeded {
		return nil
	}

	for _, seed := range defaultCatalog {
		_, err := s.db.Exec(ctx,
			`INSERT INTO catalog_entries (id, kind, name, tags, reward, secondary_amount, legacy_use_count, owner_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, 0, NULL, now(), now())`,
			uuid.New(), seed.Kind, seed.Name, seed.Tags, seed.Reward, seed.SecondaryAmount,
		)
		if err != nil {
			return fmt.Errorf("failed to seed catalog entry %q: %w", seed.Name, err)
		}
	}
	return nil
}

var defaultCatalog = []catalog.CreateEntryRequest{
	{Kind: catalog.KindQuest, Name: "Make your bed", Tags: []string{"home"}, Reward: 5},
	{Kind: catalog.KindQuest, Name: "30 minutes of exercise", Tags: []string{"health"}, Reward: 15, SecondaryAmount: 0.5},
	{Kind: catalog.KindQuest, Name: "Read 20 pages", Tags: []string{"learning"}, Reward: 10},
	{Kind: catalog.KindQuest, Name: "No sugar today", Tags: []string{"health"}, Reward: 20},
	{Kind: catalog.KindShopItem, Name: "Movie night", Tags: []string{"fun"}, Reward: 40},
	{Kind: catalog.KindShopItem, Name: "Takeout dinner", Tags: []string{"food"}, Reward: 60, SecondaryAmount: 25},
	{Kind: catalog.KindShopItem, Name: "Lazy morning", Tags: []string{"rest"}, Reward: 30},
}

func (s *CatalogService) listEntries(ctx context.Context) ([]catalog.Entry, error) {
	query := `
	SELECT id, kind, name, tags, reward, secondary_amount, legacy_use_count, owner_id, created_at, updated_at
	FROM catalog_entries
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		err := rows.Scan(
			&e.ID,
			&e.Kind,
			&e.Name,
			&e.Tags,
			&e.Reward,
			&e.SecondaryAmount,
			&e.LegacyUseCount,
			&e.OwnerID,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *CatalogService) listOverrides(ctx context.Context, userID string) ([]catalog.Override, error) {
	query := `
	SELECT id, user_id, entry_id, name, tags, reward, secondary_amount, created_at, updated_at
	FROM entry_overrides
	WHERE user_id = $1
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []catalog.Override
	for rows.Next() {
		var o catalog.Override
		err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.EntryID,
			&o.Name,
			&o.Tags,
			&o.Reward,
			&o.SecondaryAmount,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

func (s *CatalogService) listHidden(ctx context.Context, userID string) (catalog.HiddenSet, error) {
	rows, err := s.db.Query(ctx, `SELECT entry_id FROM hidden_marks WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hidden := catalog.NewHiddenSet()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		hidden.Hide(id)
	}
	return hidden, rows.Err()
}
