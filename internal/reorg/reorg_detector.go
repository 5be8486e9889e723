package reorg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/db"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/metrics"
	"github.com/goran-ethernal/ProposalIndexor/pkg/reorg"
	"github.com/goran-ethernal/ProposalIndexor/pkg/rpc"
)

var _ reorg.Detector = (*ReorgDetector)(nil)

// ReorgDetector detects chain reorganizations by tracking the hashes of
// non-finalized blocks in the downloader database.
type ReorgDetector struct {
	db          *sql.DB
	log         *logger.Logger
	rpc         rpc.EthClient
	maintenance db.Maintenance
}

// NewReorgDetector creates a detector on a migrated downloader database.
func NewReorgDetector(
	conn *sql.DB,
	rpcClient rpc.EthClient,
	log *logger.Logger,
	maintenance db.Maintenance,
) *ReorgDetector {
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}

	detector := &ReorgDetector{
		db:          conn,
		rpc:         rpcClient,
		log:         log,
		maintenance: maintenance,
	}

	metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, true)
	detector.log.Info("reorg detector initialized")

	return detector
}

// StoredBlock is a recorded block hash.
type StoredBlock struct {
	BlockNumber uint64      `meddler:"block_number"`
	BlockHash   common.Hash `meddler:"block_hash,hash"`
	ParentHash  common.Hash `meddler:"parent_hash,hash"`
}

// VerifyAndRecordBlocks checks for reorgs and records blocks for the given range:
//  1. prune recorded blocks once the finalized block is recorded and matches
//  2. re-check every recorded non-finalized block against the chain
//  3. fetch the non-finalized headers of the range and check them against
//     the logs and against each other
//  4. record the new headers
//
// All database work happens in one transaction.
func (r *ReorgDetector) VerifyAndRecordBlocks(
	ctx context.Context,
	logs []types.Log, fromBlock, toBlock uint64,
) ([]*types.Header, error) {
	defer r.maintenance.AcquireOperationLock()()

	r.log.Debugf("verifying and recording blocks: num_logs=%d from_block=%d to_block=%d",
		len(logs), fromBlock, toBlock)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	finalizedHeader, err := r.rpc.GetFinalizedBlockHeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get finalized block header: %w", err)
	}
	finalized := finalizedHeader.Number.Uint64()

	cached, err := r.storedBlock(tx, finalized)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query finalized block hash: %w", err)
	}
	if err == nil && cached.BlockHash == finalizedHeader.Hash() {
		if err := r.prune(ctx, tx, finalized+1); err != nil {
			return nil, err
		}
	}

	if err := r.verifyRecorded(ctx, tx, finalized); err != nil {
		return nil, err
	}

	blockNums := make([]uint64, 0, toBlock-fromBlock+1)
	for n := max(fromBlock, finalized+1); n <= toBlock; n++ {
		blockNums = append(blockNums, n)
	}
	if len(blockNums) == 0 {
		return nil, tx.Commit()
	}

	headers, err := r.rpc.BatchGetBlockHeaders(ctx, blockNums)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headers for range: %w", err)
	}

	if err := r.verifyFetched(logs, headers, finalized); err != nil {
		return nil, err
	}

	if err := r.record(ctx, tx, headers); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Debugf("recorded block hashes: from_block=%d to_block=%d count=%d",
		blockNums[0], blockNums[len(blockNums)-1], len(headers))

	return headers, nil
}

func (r *ReorgDetector) verifyRecorded(ctx context.Context, tx *sql.Tx, finalized uint64) error {
	var recorded []*StoredBlock
	err := db.SQLite.Meddler.QueryAll(tx, &recorded,
		"SELECT * FROM block_hashes WHERE block_number > ? ORDER BY block_number ASC", finalized)
	if err != nil {
		return fmt.Errorf("failed to get non-finalized blocks: %w", err)
	}
	if len(recorded) == 0 {
		return nil
	}

	blockNums := make([]uint64, len(recorded))
	for i, b := range recorded {
		blockNums[i] = b.BlockNumber
	}

	current, err := r.rpc.BatchGetBlockHeaders(ctx, blockNums)
	if err != nil {
		return fmt.Errorf("failed to fetch non-finalized headers: %w", err)
	}

	for i, header := range current {
		if cachedHash, currentHash := recorded[i].BlockHash, header.Hash(); cachedHash != currentHash {
			r.log.Warnf("reorg detected in non-finalized blocks: block=%d cached_hash=%s current_hash=%s",
				blockNums[i], cachedHash.Hex(), currentHash.Hex())
			reorgDetected(causeRecordedHash, uint64(len(recorded)-i), blockNums[i])
			return reorg.NewReorgError(blockNums[i],
				fmt.Sprintf("cached_hash=%s current_hash=%s", cachedHash.Hex(), currentHash.Hex()))
		}
	}

	return nil
}

// verifyFetched checks that logs agree with the headers fetched after them
// and that the headers form a chain.
func (r *ReorgDetector) verifyFetched(logs []types.Log, headers []*types.Header, finalized uint64) error {
	logHashes := make(map[uint64]common.Hash)
	for _, l := range logs {
		if l.BlockNumber > finalized {
			logHashes[l.BlockNumber] = l.BlockHash
		}
	}

	for i, header := range headers {
		blockNum := header.Number.Uint64()
		headerHash := header.Hash()

		if logHash, ok := logHashes[blockNum]; ok && logHash != headerHash {
			r.log.Warnf("reorg detected during fetch: block=%d log_hash=%s header_hash=%s",
				blockNum, logHash.Hex(), headerHash.Hex())
			reorgDetected(causeLogHash, uint64(len(headers)-i), blockNum)
			return reorg.NewReorgError(blockNum,
				fmt.Sprintf("log_hash=%s header_hash=%s", logHash.Hex(), headerHash.Hex()))
		}

		if i > 0 && header.ParentHash != headers[i-1].Hash() {
			r.log.Warnf("chain discontinuity detected: block=%d expected_parent=%s actual_parent=%s",
				blockNum, headers[i-1].Hash().Hex(), header.ParentHash.Hex())
			reorgDetected(causeDiscontinuity, uint64(len(headers)-i), blockNum)
			return reorg.NewReorgError(blockNum,
				fmt.Sprintf("chain discontinuity between blocks %d and %d", blockNum-1, blockNum))
		}
	}

	return nil
}

// Rewind forgets recorded blocks at or above block.
func (r *ReorgDetector) Rewind(ctx context.Context, block uint64) error {
	defer r.maintenance.AcquireOperationLock()()

	res, err := r.db.ExecContext(ctx, "DELETE FROM block_hashes WHERE block_number >= ?", block)
	if err != nil {
		return fmt.Errorf("failed to rewind block hashes to %d: %w", block, err)
	}

	n, _ := res.RowsAffected()
	r.log.Debugf("rewound block hashes: from_block=%d deleted_count=%d", block, n)
	return nil
}

func (r *ReorgDetector) storedBlock(tx *sql.Tx, blockNum uint64) (StoredBlock, error) {
	var block StoredBlock
	err := db.SQLite.Meddler.QueryRow(tx, &block, "SELECT * FROM block_hashes WHERE block_number = ?", blockNum)
	return block, err
}

func (r *ReorgDetector) record(ctx context.Context, tx *sql.Tx, headers []*types.Header) error {
	columns, err := db.SQLite.Meddler.ColumnsQuoted(&StoredBlock{}, true)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO block_hashes (%s) VALUES (?, ?, ?)", columns)

	for _, header := range headers {
		block := &StoredBlock{
			BlockNumber: header.Number.Uint64(),
			BlockHash:   header.Hash(),
			ParentHash:  header.ParentHash,
		}

		values, err := db.SQLite.Meddler.Values(block, true)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("failed to insert block %d: %w", block.BlockNumber, err)
		}
	}

	return nil
}

func (r *ReorgDetector) prune(ctx context.Context, tx *sql.Tx, keepFromBlock uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM block_hashes WHERE block_number < ?", keepFromBlock)
	if err != nil {
		return fmt.Errorf("failed to prune finalized blocks: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		r.log.Debugf("pruned finalized block hashes: keep_from_block=%d deleted_count=%d", keepFromBlock, n)
	}
	return nil
}

// Close marks the detector unhealthy. The connection belongs to the caller.
func (r *ReorgDetector) Close() error {
	metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, false)
	return nil
}
