package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// CraftingMetricsCollector records calculation engine and worker dispatch metrics.
// It satisfies both services.Observer and worker.Observer.
type CraftingMetricsCollector struct {
	calculationDuration *prometheus.HistogramVec
	calculationsTotal   *prometheus.CounterVec
	treeNodes           prometheus.Histogram
	treeSteps           prometheus.Histogram
	warningsTotal       *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec

	workerJobDuration *prometheus.HistogramVec
	workerFallbacks   prometheus.Counter
	workerQueueDepth  prometheus.Gauge
}

// NewCraftingMetricsCollector creates a new crafting metrics collector
func NewCraftingMetricsCollector() *CraftingMetricsCollector {
	return &CraftingMetricsCollector{
		calculationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_duration_seconds",
				Help:      "Time to compute a crafting tree end to end",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"source"},
		),
		calculationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculations_total",
				Help:      "Total number of calculations by source and status",
			},
			[]string{"source", "status"},
		),
		treeNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tree_nodes",
				Help:      "Number of nodes in computed crafting trees",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		treeSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tree_steps",
				Help:      "Number of crafting steps in computed plans",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warnings_total",
				Help:      "Total number of warnings emitted by kind",
			},
			[]string{"kind"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		workerJobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "job_duration_seconds",
				Help:      "Recalculation job duration by execution path",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"path"},
		),
		workerFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "fallbacks_total",
				Help:      "Number of times the worker failed and dispatch degraded to synchronous",
			},
		),
		workerQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "queue_depth",
				Help:      "Jobs waiting for dispatch",
			},
		),
	}
}

// Register registers all crafting metrics with the Prometheus registry
func (c *CraftingMetricsCollector) Register() error {
	return register(
		c.calculationDuration,
		c.calculationsTotal,
		c.treeNodes,
		c.treeSteps,
		c.warningsTotal,
		c.cacheLookups,
		c.workerJobDuration,
		c.workerFallbacks,
		c.workerQueueDepth,
	)
}

// RecordCalculation records one calculation
func (c *CraftingMetricsCollector) RecordCalculation(duration time.Duration, cached bool, err error) {
	source := "computed"
	if cached {
		source = "cache"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.calculationDuration.WithLabelValues(source).Observe(duration.Seconds())
	c.calculationsTotal.WithLabelValues(source, status).Inc()
}

// RecordTreeSize records the size of a computed tree and its step plan
func (c *CraftingMetricsCollector) RecordTreeSize(nodes, steps int) {
	c.treeNodes.Observe(float64(nodes))
	c.treeSteps.Observe(float64(steps))
}

// RecordWarnings counts warnings by kind
func (c *CraftingMetricsCollector) RecordWarnings(warnings []crafting.Warning) {
	for _, w := range warnings {
		c.warningsTotal.WithLabelValues(string(w.Kind)).Inc()
	}
}

// RecordCacheLookup records a hit or miss on a named cache
func (c *CraftingMetricsCollector) RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordJob records a completed dispatcher job
func (c *CraftingMetricsCollector) RecordJob(path string, duration time.Duration) {
	c.workerJobDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordFallback records the worker degrading to synchronous dispatch
func (c *CraftingMetricsCollector) RecordFallback() {
	c.workerFallbacks.Inc()
}

// SetQueueDepth updates the dispatcher queue gauge
func (c *CraftingMetricsCollector) SetQueueDepth(depth int) {
	c.workerQueueDepth.Set(float64(depth))
}
