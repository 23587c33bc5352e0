// Package metrics exposes prometheus collectors for the training core's
// internal activity: histograms built, splits evaluated, checkpoint queue
// depth, and tree depth reached. The core updates these as it runs but
// never registers them itself — embedding callers decide whether and where
// to expose a /metrics endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HistogramsBuilt counts (node, feature) histograms computed, labeled
	// by whether they were computed directly or derived via subtraction.
	HistogramsBuilt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sparkgbm",
		Subsystem: "histogram",
		Name:      "built_total",
		Help:      "Number of (node, feature) histograms produced, by source.",
	}, []string{"source"})

	// SplitsEvaluated counts (node, feature) histograms searched by the
	// split finder, labeled by search strategy.
	SplitsEvaluated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sparkgbm",
		Subsystem: "split",
		Name:      "evaluated_total",
		Help:      "Number of (node, feature) histograms searched for a split, by strategy.",
	}, []string{"strategy"})

	// CheckpointQueueDepth reports the current size of the Checkpointer's
	// persisted-dataset FIFO queue.
	CheckpointQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sparkgbm",
		Subsystem: "checkpoint",
		Name:      "persisted_queue_depth",
		Help:      "Current number of datasets held in the Checkpointer's persist queue.",
	})

	// CheckpointDeleteFailures counts checkpoint/file deletion failures
	// that were logged and swallowed.
	CheckpointDeleteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sparkgbm",
		Subsystem: "checkpoint",
		Name:      "delete_failures_total",
		Help:      "Number of checkpoint file deletions that failed and were logged-and-swallowed.",
	})

	// TreeDepthReached observes the depth at which each tree stopped
	// growing.
	TreeDepthReached = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sparkgbm",
		Subsystem: "tree",
		Name:      "depth_reached",
		Help:      "Depth reached by each grown tree.",
		Buckets:   prometheus.LinearBuckets(1, 1, 20),
	})
)

// Collectors returns every collector this package defines, for callers that
// want to register them all at once.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HistogramsBuilt,
		SplitsEvaluated,
		CheckpointQueueDepth,
		CheckpointDeleteFailures,
		TreeDepthReached,
	}
}

// Register registers every collector with reg. Safe to call more than once
// against different registries; returns the first registration error
// encountered, if any (e.g. a duplicate registration against the same
// registry).
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
