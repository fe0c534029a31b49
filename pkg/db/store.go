package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/db/dao"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrRunNotFound is returned when a run id is unknown
var ErrRunNotFound = apperrors.NotFoundError(nil, "bridge run not found")

// Store provides database operations for the relayer
type Store struct {
	db *bun.DB
}

// NewStore creates a new postgres store
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// IsProcessed reports whether key has been recorded under kind
func (s *Store) IsProcessed(ctx context.Context, kind ItemKind, key string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*dao.ProcessedItemDao)(nil)).
		Where("kind = ?", string(kind)).
		Where("item_key = ?", key).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check processed item: %w", err)
	}
	return exists, nil
}

// MarkProcessed records key under kind. It returns false when the key was
// already present; the unique (kind, item_key) constraint decides.
func (s *Store) MarkProcessed(ctx context.Context, kind ItemKind, key, note string) (bool, error) {
	res, err := s.db.NewInsert().
		Model(&dao.ProcessedItemDao{Kind: string(kind), ItemKey: key, Note: note}).
		On("CONFLICT (kind, item_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetCursor returns the last processed block of chain
func (s *Store) GetCursor(ctx context.Context, chain string) (uint64, bool, error) {
	state := new(dao.ChainStateDao)
	err := s.db.NewSelect().
		Model(state).
		Where("chain = ?", chain).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get chain state: %w", err)
	}
	return uint64(state.LastBlock), true, nil
}

// SetCursor stores the last processed block of chain
func (s *Store) SetCursor(ctx context.Context, chain string, block uint64) error {
	_, err := s.db.NewInsert().
		Model(&dao.ChainStateDao{Chain: chain, LastBlock: int64(block), UpdatedAt: time.Now()}).
		On("CONFLICT (chain) DO UPDATE").
		Set("last_block = EXCLUDED.last_block").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set chain state: %w", err)
	}
	return nil
}

// CreateRun inserts a new run record
func (s *Store) CreateRun(ctx context.Context, run *BridgeRun) error {
	if _, err := s.db.NewInsert().Model(toRunDao(run)).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create bridge run: %w", err)
	}
	return nil
}

// UpdateRun overwrites the mutable fields of a run
func (s *Store) UpdateRun(ctx context.Context, run *BridgeRun) error {
	d := toRunDao(run)
	d.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(d).
		Column("status", "stage", "bridge_to_destination_tx", "mint_on_destination_tx",
			"swap_tx", "bridge_back_tx", "mint_on_source_tx", "error", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update bridge run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*BridgeRun, error) {
	d := new(dao.BridgeRunDao)
	err := s.db.NewSelect().Model(d).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get bridge run: %w", err)
	}
	return toRun(d), nil
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*BridgeRun, error) {
	var daos []dao.BridgeRunDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bridge runs: %w", err)
	}
	runs := make([]*BridgeRun, len(daos))
	for i := range daos {
		runs[i] = toRun(&daos[i])
	}
	return runs, nil
}

func toRunDao(r *BridgeRun) *dao.BridgeRunDao {
	return &dao.BridgeRunDao{
		ID:                    r.ID,
		OrderID:               r.OrderID,
		UserAddress:           r.UserAddress,
		Amount:                r.Amount,
		ZeroForOne:            r.ZeroForOne,
		Status:                string(r.Status),
		Stage:                 r.Stage,
		BridgeToDestinationTx: r.BridgeToDestinationTx,
		MintOnDestinationTx:   r.MintOnDestinationTx,
		SwapTx:                r.SwapTx,
		BridgeBackTx:          r.BridgeBackTx,
		MintOnSourceTx:        r.MintOnSourceTx,
		Error:                 r.Error,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func toRun(d *dao.BridgeRunDao) *BridgeRun {
	return &BridgeRun{
		ID:                    d.ID,
		OrderID:               d.OrderID,
		UserAddress:           d.UserAddress,
		Amount:                d.Amount,
		ZeroForOne:            d.ZeroForOne,
		Status:                RunStatus(d.Status),
		Stage:                 d.Stage,
		BridgeToDestinationTx: d.BridgeToDestinationTx,
		MintOnDestinationTx:   d.MintOnDestinationTx,
		SwapTx:                d.SwapTx,
		BridgeBackTx:          d.BridgeBackTx,
		MintOnSourceTx:        d.MintOnSourceTx,
		Error:                 d.Error,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}
