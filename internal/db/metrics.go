package db

import (
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Every series is labelled with the database file name, since the entity
// store and the downloader state live in separate SQLite files.
var (
	maintenanceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proposalindexor_db_maintenance_runs_total",
		Help: "Maintenance runs by database and outcome",
	}, []string{"database", "status"})

	maintenanceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proposalindexor_db_maintenance_duration_seconds",
		Help:    "Duration of maintenance runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"database"})

	maintenanceLastRun = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "proposalindexor_db_maintenance_last_run_timestamp",
		Help: "Unix timestamp of the last maintenance run",
	}, []string{"database"})

	spaceReclaimed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proposalindexor_db_space_reclaimed_bytes_total",
		Help: "Bytes reclaimed by VACUUM",
	}, []string{"database"})

	walCheckpoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proposalindexor_db_wal_checkpoints_total",
		Help: "WAL checkpoints by database and mode",
	}, []string{"database", "mode"})

	fileSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "proposalindexor_db_size_bytes",
		Help: "Size of the database including WAL and shared memory files",
	}, []string{"database"})
)

// maintenanceMetrics records the outcome of maintenance runs for one database.
type maintenanceMetrics struct {
	database string
}

func newMaintenanceMetrics(dbPath string) maintenanceMetrics {
	return maintenanceMetrics{database: filepath.Base(dbPath)}
}

func (m maintenanceMetrics) run(start time.Time, sizeAfter int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	maintenanceRuns.WithLabelValues(m.database, status).Inc()
	maintenanceDuration.WithLabelValues(m.database).Observe(time.Since(start).Seconds())
	maintenanceLastRun.WithLabelValues(m.database).Set(float64(time.Now().Unix()))
	fileSize.WithLabelValues(m.database).Set(float64(sizeAfter))
}

func (m maintenanceMetrics) reclaimed(bytes uint64) {
	spaceReclaimed.WithLabelValues(m.database).Add(float64(bytes))
}

func (m maintenanceMetrics) walCheckpoint(mode string) {
	walCheckpoints.WithLabelValues(m.database, mode).Inc()
}
