package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
)

// Maintenance runs WAL checkpoints and VACUUM against an SQLite database.
// Regular operations hold a shared lock; maintenance holds it exclusively.
type Maintenance interface {
	Start(ctx context.Context) error
	Stop() error
	// AcquireOperationLock takes the shared side of the lock. The returned
	// function releases it.
	AcquireOperationLock() func()
	RunMaintenance(ctx context.Context) error
	GetMetrics() MaintenanceMetrics
}

// MaintenanceMetrics provides visibility into maintenance operations.
type MaintenanceMetrics struct {
	LastMaintenanceTime  time.Time
	MaintenanceCount     uint64
	LastMaintenanceError error
}

// NoOpMaintenance is used when maintenance is not configured.
type NoOpMaintenance struct{}

func (*NoOpMaintenance) Start(context.Context) error          { return nil }
func (*NoOpMaintenance) Stop() error                          { return nil }
func (*NoOpMaintenance) AcquireOperationLock() func()         { return func() {} }
func (*NoOpMaintenance) RunMaintenance(context.Context) error { return nil }
func (*NoOpMaintenance) GetMetrics() MaintenanceMetrics       { return MaintenanceMetrics{} }

// MaintenanceCoordinator is the SQLite implementation of Maintenance.
type MaintenanceCoordinator struct {
	db     *sql.DB
	dbPath string
	config config.MaintenanceConfig
	log    *logger.Logger
	stats  maintenanceMetrics

	opLock sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup

	metricsLock sync.Mutex
	metrics     MaintenanceMetrics
}

// NewMaintenanceCoordinator returns a coordinator for the database at dbPath,
// or a no-op when cfg is nil.
func NewMaintenanceCoordinator(dbPath string, db *sql.DB, cfg *config.MaintenanceConfig, log *logger.Logger) Maintenance {
	if cfg == nil {
		return &NoOpMaintenance{}
	}

	return &MaintenanceCoordinator{
		db:     db,
		dbPath: dbPath,
		config: *cfg,
		log:    log.WithComponent(common.ComponentMaintenance).WithFields("database", dbPath),
		stats:  newMaintenanceMetrics(dbPath),
	}
}

// Start launches the periodic worker when maintenance is enabled.
func (m *MaintenanceCoordinator) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.log.Info("Background maintenance is disabled")
		return nil
	}

	ctx, m.cancel = context.WithCancel(ctx)

	if m.config.VacuumOnStartup {
		if err := m.RunMaintenance(ctx); err != nil {
			m.log.Warnf("Startup maintenance failed: %v", err)
		}
	}

	m.wg.Add(1)
	go m.worker(ctx, m.config.CheckInterval.Duration)

	m.log.Infof("Background maintenance started - interval: %v, checkpoint mode: %s",
		m.config.CheckInterval.Duration, m.config.WALCheckpointMode)
	return nil
}

// Stop cancels the worker and waits for it to exit.
func (m *MaintenanceCoordinator) Stop() error {
	if m.cancel == nil {
		return nil
	}

	m.cancel()
	m.wg.Wait()
	m.log.Info("Background maintenance stopped")
	return nil
}

func (m *MaintenanceCoordinator) worker(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RunMaintenance(ctx); err != nil {
				m.log.Warnf("Periodic maintenance failed: %v", err)
			}
		}
	}
}

// AcquireOperationLock takes the shared side of the maintenance lock.
func (m *MaintenanceCoordinator) AcquireOperationLock() func() {
	m.opLock.RLock()
	return m.opLock.RUnlock
}

// RunMaintenance checkpoints the WAL and vacuums the database while holding
// the lock exclusively.
func (m *MaintenanceCoordinator) RunMaintenance(ctx context.Context) error {
	start := time.Now().UTC()

	m.opLock.Lock()
	defer m.opLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	before, err := DBTotalSize(m.dbPath)
	if err != nil {
		m.log.Warnf("Failed to get initial DB size: %v", err)
	}

	var runErr error
	if err := m.walCheckpoint(); err != nil {
		runErr = fmt.Errorf("WAL checkpoint failed: %w", err)
	}
	if err := Vacuum(m.db); err != nil && runErr == nil {
		runErr = err
	}

	after, err := DBTotalSize(m.dbPath)
	if err != nil {
		m.log.Warnf("Failed to get final DB size: %v", err)
	}

	m.metricsLock.Lock()
	m.metrics.LastMaintenanceTime = time.Now().UTC()
	m.metrics.MaintenanceCount++
	m.metrics.LastMaintenanceError = runErr
	m.metricsLock.Unlock()

	m.stats.run(start, after, runErr)

	if runErr != nil {
		m.log.Warnf("Maintenance completed with errors in %v: %v", time.Since(start), runErr)
		return runErr
	}

	if before > after {
		reclaimed := uint64(before - after)
		m.stats.reclaimed(reclaimed)
		m.log.Infof("Maintenance reclaimed %d MB in %v", common.BytesToMB(reclaimed), time.Since(start))
	}

	return nil
}

func (m *MaintenanceCoordinator) walCheckpoint() error {
	var mode string
	if err := m.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		return nil
	}

	var busy, logFrames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.config.WALCheckpointMode)
	if err := m.db.QueryRow(query).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return err
	}

	m.stats.walCheckpoint(strings.ToLower(m.config.WALCheckpointMode))
	if busy > 0 {
		m.log.Warnf("WAL checkpoint encountered %d busy pages", busy)
	}
	m.log.Debugf("WAL checkpoint complete - log_frames: %d, checkpointed: %d", logFrames, checkpointed)
	return nil
}

// GetMetrics returns a snapshot of maintenance counters.
func (m *MaintenanceCoordinator) GetMetrics() MaintenanceMetrics {
	m.metricsLock.Lock()
	defer m.metricsLock.Unlock()
	return m.metrics
}
