package downloader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/db"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	pkgdownloader "github.com/goran-ethernal/ProposalIndexor/pkg/downloader"
)

var _ pkgdownloader.SyncManager = (*SyncManager)(nil)

// SyncState is the persisted download checkpoint.
type SyncState = pkgdownloader.SyncState

// SyncManager keeps the single-row download checkpoint in the downloader database.
type SyncManager struct {
	db          *sql.DB
	log         *logger.Logger
	maintenance db.Maintenance
}

// NewSyncManager creates a sync manager on a migrated downloader database.
func NewSyncManager(conn *sql.DB, log *logger.Logger, maintenance db.Maintenance) *SyncManager {
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}

	return &SyncManager{
		db:          conn,
		log:         log,
		maintenance: maintenance,
	}
}

// GetState returns the current checkpoint.
func (sm *SyncManager) GetState(ctx context.Context) (*SyncState, error) {
	defer sm.maintenance.AcquireOperationLock()()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state SyncState
	if err := db.SQLite.Meddler.QueryRow(sm.db, &state, "SELECT * FROM sync_state WHERE id = 1"); err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	return &state, nil
}

// SaveCheckpoint records blockNum as fully processed.
func (sm *SyncManager) SaveCheckpoint(
	ctx context.Context, blockNum uint64, blockHash common.Hash, mode pkgdownloader.FetchMode,
) error {
	state := SyncState{
		ID:                   1,
		LastIndexedBlock:     blockNum,
		LastIndexedBlockHash: blockHash,
		LastIndexedTimestamp: time.Now().Unix(),
		Mode:                 mode.String(),
	}

	if err := sm.save(ctx, &state); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	sm.log.Debugf("saved checkpoint: block=%d block_hash=%s mode=%s", blockNum, blockHash.Hex(), mode)
	return nil
}

// Reset rewinds the checkpoint to block and switches back to backfill.
func (sm *SyncManager) Reset(ctx context.Context, block uint64) error {
	state := SyncState{
		ID:                   1,
		LastIndexedBlock:     block,
		LastIndexedTimestamp: time.Now().Unix(),
		Mode:                 pkgdownloader.ModeBackfill.String(),
	}

	if err := sm.save(ctx, &state); err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}

	sm.log.Warnf("sync state reset: last_indexed_block=%d", block)
	return nil
}

func (sm *SyncManager) save(ctx context.Context, state *SyncState) error {
	defer sm.maintenance.AcquireOperationLock()()

	if err := ctx.Err(); err != nil {
		return err
	}
	return db.SQLite.Meddler.Update(sm.db, "sync_state", state)
}
