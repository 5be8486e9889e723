package reorg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reorg causes.
const (
	causeRecordedHash  = "recorded_hash"
	causeLogHash       = "log_hash"
	causeDiscontinuity = "discontinuity"
)

var (
	reorgsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proposalindexor_reorgs_detected_total",
		Help: "Chain reorganizations detected, by the check that caught them",
	}, []string{"cause"})

	reorgDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proposalindexor_reorg_depth_blocks",
		Help:    "Number of blocks invalidated by a reorganization",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})

	reorgLastBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "proposalindexor_reorg_last_first_block",
		Help: "First invalid block of the most recent reorganization",
	})
)

func reorgDetected(cause string, depth, firstBlock uint64) {
	reorgsDetected.WithLabelValues(cause).Inc()
	reorgDepth.Observe(float64(depth))
	reorgLastBlock.Set(float64(firstBlock))
}
