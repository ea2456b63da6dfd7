// Package metrics provides in-process Prometheus counters for the transmit
// pipeline's pool-exhaustion and lateness events. It deliberately stops at
// the counters themselves: wiring an HTTP exposition endpoint is metrics
// export plumbing, which is out of scope (spec §1 "Surrounding
// functionality").
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oran-ofh/gnbdu-ofh-tx/framepool"
)

// Collector implements framepool.MetricsSink and exposes a late-event
// counter the window checkers can feed via AddWindowLate, registered against
// a caller-supplied prometheus.Registerer.
type Collector struct {
	poolExhausted *prometheus.CounterVec
	lateEvents    *prometheus.CounterVec
}

// NewCollector creates and registers the OFH transmit-path counters against
// reg. Registration failures (duplicate registration) panic, matching the
// package-level prometheus.MustRegister convention.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		poolExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ofh",
			Subsystem: "tx",
			Name:      "pool_exhausted_total",
			Help:      "Number of times a frame-pool partition had no free buffer on Reserve.",
		}, []string{"partition"}),
		lateEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ofh",
			Subsystem: "tx",
			Name:      "late_events_total",
			Help:      "Number of buffers or slots reclaimed as late across the transmit path.",
		}, []string{"partition"}),
	}
	reg.MustRegister(c.poolExhausted, c.lateEvents)
	return c
}

// IncPoolExhausted implements framepool.MetricsSink.
func (c *Collector) IncPoolExhausted(partition framepool.Partition) {
	c.poolExhausted.WithLabelValues(partition.String()).Inc()
}

// AddLate implements framepool.MetricsSink.
func (c *Collector) AddLate(partition framepool.Partition, n int) {
	c.lateEvents.WithLabelValues(partition.String()).Add(float64(n))
}

// AddWindowLate records n late events observed by a txwindow.Checker under
// the given label; ofhtx.Pipeline uses the label "window".
func (c *Collector) AddWindowLate(label string, n uint64) {
	c.lateEvents.WithLabelValues(label).Add(float64(n))
}
