package indexer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/decoder"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/metrics"
	"github.com/goran-ethernal/ProposalIndexor/internal/store"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	"github.com/goran-ethernal/ProposalIndexor/pkg/indexer"
)

func init() {
	indexer.Register(config.IndexerTypeFunding, newFromConfig)
	indexer.Register(config.IndexerTypeProposalVoting, newFromConfig)
}

func newFromConfig(cfg config.IndexerConfig, st store.Store, log *logger.Logger) (indexer.Indexer, error) {
	return NewContractIndexer(cfg, st, log)
}

// ContractIndexer indexes the events of one contract family emitted by a set
// of deployments.
type ContractIndexer struct {
	cfg       config.IndexerConfig
	contract  events.Contract
	addresses []ethcommon.Address
	processor *Processor
	log       *logger.Logger
}

// NewContractIndexer creates an indexer for cfg.Type writing into st.
func NewContractIndexer(cfg config.IndexerConfig, st store.Store, log *logger.Logger) (*ContractIndexer, error) {
	if st == nil {
		return nil, fmt.Errorf("indexer %s: store is required", cfg.Name)
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	cfg.ApplyDefaults()

	contract, err := events.ParseContract(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("indexer %s: %w", cfg.Name, err)
	}

	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("indexer %s: at least one address is required", cfg.Name)
	}
	for _, a := range cfg.Addresses {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("indexer %s: invalid address %q", cfg.Name, a)
		}
	}

	switch cfg.OnDecodeError {
	case config.OnDecodeErrorSkip, config.OnDecodeErrorHalt:
	default:
		return nil, fmt.Errorf("indexer %s: unknown decode error policy %q", cfg.Name, cfg.OnDecodeError)
	}

	dec, err := decoder.New(contract)
	if err != nil {
		return nil, fmt.Errorf("indexer %s: %w", cfg.Name, err)
	}

	log = log.WithComponent(common.ComponentIndexer).WithFields("indexer", cfg.Name)

	return &ContractIndexer{
		cfg:       cfg,
		contract:  contract,
		addresses: common.ParseAddresses(cfg.Addresses),
		processor: NewProcessor(dec, st, log),
		log:       log,
	}, nil
}

// GetName returns the configured name of the indexer instance.
func (c *ContractIndexer) GetName() string {
	return c.cfg.Name
}

// GetType returns the contract family of the indexer.
func (c *ContractIndexer) GetType() string {
	return string(c.contract)
}

// StartBlock returns the block number from which this indexer should start.
func (c *ContractIndexer) StartBlock() uint64 {
	return c.cfg.StartBlock
}

// EventsToIndex maps every configured address to the topics of the contract family.
func (c *ContractIndexer) EventsToIndex() map[ethcommon.Address]map[ethcommon.Hash]struct{} {
	topics := c.processor.Decoder().Topics()

	out := make(map[ethcommon.Address]map[ethcommon.Hash]struct{}, len(c.addresses))
	for _, addr := range c.addresses {
		set := make(map[ethcommon.Hash]struct{}, len(topics))
		for _, t := range topics {
			set[t] = struct{}{}
		}
		out[addr] = set
	}
	return out
}

// HandleLogs processes logs one at a time in (block, log index) order.
// Cancellation is checked between logs.
func (c *ContractIndexer) HandleLogs(ctx context.Context, logs []events.Log) error {
	start := time.Now()
	defer func() {
		metrics.BatchProcessingTimeLog(c.cfg.Name, time.Since(start))
	}()

	ordered := slices.Clone(logs)
	slices.SortStableFunc(ordered, func(a, b events.Log) int {
		if n := cmp.Compare(a.BlockNumber, b.BlockNumber); n != 0 {
			return n
		}
		return cmp.Compare(a.Index, b.Index)
	})

	indexed := 0
	for _, l := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := c.processor.HandleLog(ctx, l)
		if err != nil {
			var decodeErr *decoder.DecodeError
			if !errors.As(err, &decodeErr) {
				return err
			}

			metrics.DecodeErrorInc(c.cfg.Name, decodeReason(decodeErr))
			if c.cfg.OnDecodeError == config.OnDecodeErrorHalt {
				return fmt.Errorf("indexer %s halted: %w", c.cfg.Name, err)
			}
			c.log.Warnf("skipping log: %v", err)
			continue
		}

		indexed++
		metrics.LastIndexedBlockSet(c.cfg.Name, l.BlockNumber)
	}

	metrics.LogsIndexedInc(c.cfg.Name, indexed)
	return nil
}

// HandleReorg rolls back every record at or after blockNum.
func (c *ContractIndexer) HandleReorg(ctx context.Context, blockNum uint64) error {
	removed, err := c.processor.Rollback(ctx, blockNum)
	if err != nil {
		return err
	}

	metrics.RollbackLog(c.cfg.Name, removed)
	c.log.Infof("Handled reorg from block %d, removed %d records", blockNum, removed)
	return nil
}

func decodeReason(err *decoder.DecodeError) string {
	if errors.Is(err, decoder.ErrUnknownEvent) {
		return "unknown_event"
	}
	return "malformed"
}
