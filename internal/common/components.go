package common

const (
	ComponentDownloader         = "downloader"
	ComponentLogFetcher         = "log-fetcher"
	ComponentSyncManager        = "sync-manager"
	ComponentReorgDetector      = "reorg-detector"
	ComponentRPC                = "rpc"
	ComponentIndexerCoordinator = "indexer-coordinator"
	ComponentIndexer            = "indexer"
	ComponentStore              = "store"
	ComponentMaintenance        = "maintenance"
	ComponentAPI                = "api"
)

var AllComponents = map[string]struct{}{
	ComponentDownloader:         {},
	ComponentLogFetcher:         {},
	ComponentSyncManager:        {},
	ComponentReorgDetector:      {},
	ComponentRPC:                {},
	ComponentIndexerCoordinator: {},
	ComponentIndexer:            {},
	ComponentStore:              {},
	ComponentMaintenance:        {},
	ComponentAPI:                {},
}
