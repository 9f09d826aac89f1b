/*
Package metrics exposes coordination-core observability two ways at once:
Prometheus gauges/counters/histograms for scraping, and a plain-struct
Snapshot for callers (CLI status output, tests) that just want a value.
Collector samples a Source (normally the Swarm Coordinator) on a timer and
pushes into both.

	c := metrics.NewCollector(coordinator, 15*time.Second)
	c.Start()
	defer c.Stop()
	http.Handle("/metrics", metrics.Handler())
*/
package metrics
