package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics
	storeOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalindexor_store_operations_total",
			Help: "Total number of entity store operations",
		},
		[]string{"backend", "operation"},
	)

	storeOpTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proposalindexor_store_operation_duration_seconds",
			Help:    "Duration of entity store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalindexor_store_errors_total",
			Help: "Total number of entity store errors",
		},
		[]string{"backend", "operation"},
	)

	// Indexing metrics
	LastIndexedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proposalindexor_last_indexed_block",
			Help: "The last block number successfully indexed",
		},
		[]string{"indexer"},
	)

	LogsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalindexor_logs_indexed_total",
			Help: "Total number of logs indexed",
		},
		[]string{"indexer"},
	)

	EntitiesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalindexor_entities_stored_total",
			Help: "Total number of entity writes by kind",
		},
		[]string{"kind"},
	)

	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalindexor_decode_errors_total",
			Help: "Total number of logs that failed to decode",
		},
		[]string{"indexer", "reason"},
	)

	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalindexor_rollbacks_total",
			Help: "Total number of rollbacks applied",
		},
		[]string{"indexer"},
	)

	EntitiesRolledBack = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposalindexor_entities_rolled_back_total",
			Help: "Total number of entities removed by rollbacks",
		},
		[]string{"indexer"},
	)

	BatchProcessingTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proposalindexor_batch_processing_duration_seconds",
			Help:    "Time taken to process a batch of logs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"indexer"},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proposalindexor_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proposalindexor_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proposalindexor_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proposalindexor_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func StoreOpInc(backend, operation string) {
	storeOps.WithLabelValues(backend, operation).Inc()
}

func StoreOpDuration(backend, operation string, duration time.Duration) {
	storeOpTime.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func StoreErrorInc(backend, operation string) {
	storeErrors.WithLabelValues(backend, operation).Inc()
}

func LastIndexedBlockSet(indexer string, blockNum uint64) {
	LastIndexedBlock.WithLabelValues(indexer).Set(float64(blockNum))
}

func LogsIndexedInc(indexer string, count int) {
	LogsIndexed.WithLabelValues(indexer).Add(float64(count))
}

func EntityStoredInc(kind string) {
	EntitiesStored.WithLabelValues(kind).Inc()
}

func DecodeErrorInc(indexer, reason string) {
	DecodeErrors.WithLabelValues(indexer, reason).Inc()
}

func RollbackLog(indexer string, removed int) {
	Rollbacks.WithLabelValues(indexer).Inc()
	EntitiesRolledBack.WithLabelValues(indexer).Add(float64(removed))
}

func BatchProcessingTimeLog(indexer string, duration time.Duration) {
	BatchProcessingTime.WithLabelValues(indexer).Observe(duration.Seconds())
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())
	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
