package metrics

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is the read-only view of a MultipolygonManager that Collector
// exposes as Prometheus metrics. pkg/manager's Manager implements this
// directly; Collector never imports pkg/manager, keeping the dependency
// one-way (manager is free to wrap a Collector without an import cycle).
type StatsSource interface {
	AreasBuilt() uint64
	RingsBuilt() uint64
	FailuresByKind() map[string]uint64
	IncompleteRelations() int
	UsedMemoryBytes() (relations, members, stash uint64)
}

// Collector adapts a StatsSource into a prometheus.Collector. Unlike the
// teacher's package-level gauges auto-registered at import time, this
// module is an embeddable library: the embedder constructs a Collector
// per Manager and calls prometheus.Register explicitly — nothing here
// registers itself as a side effect of being imported, and no HTTP
// server is started (spec.md's CLI/front-end Non-goal).
type Collector struct {
	source StatsSource
	runID  string

	areasBuilt          *prometheus.Desc
	ringsBuilt          *prometheus.Desc
	failuresByKind      *prometheus.Desc
	incompleteRelations *prometheus.Desc
	memoryBytes         *prometheus.Desc
}

// NewCollector builds a Collector reading from source, labeling every
// metric with runID so several managers in one process stay
// distinguishable on scrape.
func NewCollector(source StatsSource, runID string) *Collector {
	constLabels := prometheus.Labels{"run_id": runID}
	return &Collector{
		source: source,
		runID:  runID,
		areasBuilt: prometheus.NewDesc(
			"mpoly_areas_built_total",
			"Total number of Area objects assembled.",
			nil, constLabels,
		),
		ringsBuilt: prometheus.NewDesc(
			"mpoly_rings_built_total",
			"Total number of rings assembled across all areas.",
			nil, constLabels,
		),
		failuresByKind: prometheus.NewDesc(
			"mpoly_assembly_failures_total",
			"Total number of swallowed or recorded assembly failures by kind.",
			[]string{"kind"}, constLabels,
		),
		incompleteRelations: prometheus.NewDesc(
			"mpoly_incomplete_relations",
			"Relations still awaiting one or more way members at the time of the scrape.",
			nil, constLabels,
		),
		memoryBytes: prometheus.NewDesc(
			"mpoly_used_memory_bytes",
			"Estimated memory footprint by component.",
			[]string{"component"}, constLabels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.areasBuilt
	ch <- c.ringsBuilt
	ch <- c.failuresByKind
	ch <- c.incompleteRelations
	ch <- c.memoryBytes
}

// Collect implements prometheus.Collector, reading a fresh snapshot from
// the underlying StatsSource on every scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.areasBuilt, prometheus.CounterValue, float64(c.source.AreasBuilt()))
	ch <- prometheus.MustNewConstMetric(c.ringsBuilt, prometheus.CounterValue, float64(c.source.RingsBuilt()))

	for kind, count := range c.source.FailuresByKind() {
		ch <- prometheus.MustNewConstMetric(c.failuresByKind, prometheus.CounterValue, float64(count), kind)
	}

	ch <- prometheus.MustNewConstMetric(c.incompleteRelations, prometheus.GaugeValue, float64(c.source.IncompleteRelations()))

	relBytes, memBytes, stashBytes := c.source.UsedMemoryBytes()
	ch <- prometheus.MustNewConstMetric(c.memoryBytes, prometheus.GaugeValue, float64(relBytes), "relations")
	ch <- prometheus.MustNewConstMetric(c.memoryBytes, prometheus.GaugeValue, float64(memBytes), "members")
	ch <- prometheus.MustNewConstMetric(c.memoryBytes, prometheus.GaugeValue, float64(stashBytes), "stash")
}
