package indexer

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/store"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
)

// Factory creates an indexer that writes into st.
type Factory func(cfg config.IndexerConfig, st store.Store, log *logger.Logger) (Indexer, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register registers an indexer factory under the given type name.
// The type name is case-insensitive.
func Register(indexerType string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	name := strings.ToLower(indexerType)
	if _, exists := registry[name]; exists {
		logger.GetDefaultLogger().Infof("indexer type %s already registered, overwriting", name)
	}

	registry[name] = factory
}

// GetFactory returns the factory for the given indexer type, or nil.
func GetFactory(indexerType string) Factory {
	mu.RLock()
	defer mu.RUnlock()
	return registry[strings.ToLower(indexerType)]
}

// ListRegistered returns the registered indexer types in sorted order.
func ListRegistered() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Create creates a new indexer instance using the registered factory.
func Create(cfg config.IndexerConfig, st store.Store, log *logger.Logger) (Indexer, error) {
	factory := GetFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("unknown indexer type: %s (registered types: %v)", cfg.Type, ListRegistered())
	}

	return factory(cfg, st, log)
}
