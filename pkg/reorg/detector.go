package reorg

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

// Detector verifies fetched block ranges against the canonical chain.
type Detector interface {
	// VerifyAndRecordBlocks checks logs and the headers of [fromBlock, toBlock]
	// against previously recorded block hashes and records the new ones. It
	// returns the headers of the non-finalized blocks of the range, or a
	// *ReorgDetectedError.
	VerifyAndRecordBlocks(ctx context.Context, logs []types.Log, fromBlock, toBlock uint64) ([]*types.Header, error)

	// Rewind forgets recorded blocks at or above block.
	Rewind(ctx context.Context, block uint64) error

	Close() error
}

// ReorgDetectedError is returned when a blockchain reorganization is detected.
type ReorgDetectedError struct {
	FirstReorgBlock uint64
	Details         string
}

func (e *ReorgDetectedError) Error() string {
	return fmt.Sprintf("reorg detected at block %d: %s", e.FirstReorgBlock, e.Details)
}

// NewReorgError creates a new ReorgDetectedError.
func NewReorgError(firstReorgBlock uint64, details string) error {
	return &ReorgDetectedError{
		FirstReorgBlock: firstReorgBlock,
		Details:         details,
	}
}
