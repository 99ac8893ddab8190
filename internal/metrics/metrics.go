// Package metrics exports workflow routing measurements to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workflow"

// Observer records per-node routing latency and fragment counts. Node names
// come from caller-supplied definitions, so they are not used as labels.
type Observer struct {
	nodeLatency prometheus.Histogram
	fragments   *prometheus.CounterVec
	counts      *prometheus.CounterVec
}

// NewObserver registers the collectors on reg. Passing a fresh registry per
// test keeps registrations from colliding.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		nodeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "latency_seconds",
			Help:      "Time spent routing all regions that reached one workflow.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		fragments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "fragments_total",
			Help:      "Regions consumed and emitted by workflows.",
		}, []string{"direction"}),
		counts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counts_total",
			Help:      "Accepted-volume computations by outcome.",
		}, []string{"outcome"}),
	}
}

func (o *Observer) ObserveNodeLatency(nodeID string, duration time.Duration) {
	o.nodeLatency.Observe(duration.Seconds())
}

func (o *Observer) ObserveFragments(nodeID string, in, out int) {
	o.fragments.WithLabelValues("in").Add(float64(in))
	o.fragments.WithLabelValues("out").Add(float64(out))
}

// ObserveCount records one count request; outcome is "computed", "stored" or "error".
func (o *Observer) ObserveCount(outcome string) {
	o.counts.WithLabelValues(outcome).Inc()
}
