/*
Package metrics exposes a MultipolygonManager's stats as Prometheus
metrics, via a Collector the embedder registers explicitly.

Unlike a long-running service, this module is an importable library with
no singleton metrics endpoint of its own: Collector implements
prometheus.Collector (Describe/Collect) rather than registering
package-level gauges at init time, so importing this package never
mutates the default registry as a side effect, and nothing here starts an
HTTP server.

# Metrics

	mpoly_areas_built_total{run_id}              Counter
	mpoly_rings_built_total{run_id}              Counter
	mpoly_assembly_failures_total{kind, run_id}  Counter
	mpoly_incomplete_relations{run_id}           Gauge
	mpoly_used_memory_bytes{component, run_id}   Gauge  (component: relations|members|stash)

# Usage

	collector := metrics.NewCollector(manager, manager.ID())
	prometheus.MustRegister(collector)

Timer is a small stopwatch helper, independent of Collector, for timing
individual assembly calls:

	timer := metrics.NewTimer()
	emitted, err := asm.AssembleWay(way, sink)
	timer.ObserveDuration(assemblyDuration)
*/
package metrics
