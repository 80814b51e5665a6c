// Package metrics provides an optional Prometheus collector for a striped
// map, exposing the write-path events that are cheap to observe without
// touching the reader's lock-free path: successful puts and removes,
// partition-local rehashes, and partition-directory materialization.
//
// A Collector is created by the caller and handed to a map via
// stripedmap.WithMetrics, then registered with a Prometheus registry by
// the caller; the collector never registers itself, matching the
// registration idiom github.com/prometheus/client_golang documents.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes per-map-instance counters and gauges. All fields are
// safe for concurrent use; they are plain Prometheus metric handles.
type Collector struct {
	PutsTotal              prometheus.Counter
	RemovesTotal           prometheus.Counter
	RehashesTotal          prometheus.Counter
	PartitionsMaterialized prometheus.Counter
	PartitionCount         prometheus.Gauge
}

// New builds a Collector with metric names prefixed by namespace (for
// example, the map's InstanceID so distinct instances don't collide in
// one registry).
func New(namespace string) *Collector {
	return &Collector{
		PutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "puts_total",
			Help:      "Number of successful put operations (inserts and overwrites).",
		}),
		RemovesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removes_total",
			Help:      "Number of successful remove operations.",
		}),
		RehashesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rehashes_total",
			Help:      "Number of partition-local bucket table doublings.",
		}),
		PartitionsMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_materialized_total",
			Help:      "Number of partitions materialized, including partition 0 at construction.",
		}),
		PartitionCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "partition_count",
			Help:      "Number of partitions materialized right now.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.PutsTotal.Desc()
	ch <- c.RemovesTotal.Desc()
	ch <- c.RehashesTotal.Desc()
	ch <- c.PartitionsMaterialized.Desc()
	ch <- c.PartitionCount.Desc()
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- c.PutsTotal
	ch <- c.RemovesTotal
	ch <- c.RehashesTotal
	ch <- c.PartitionsMaterialized
	ch <- c.PartitionCount
}
