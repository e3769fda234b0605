package awaittree

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the gauges RegisterMetrics attaches to a prometheus
// Registerer, grounded on frebib-zrepl's daemon/logging/trace package
// (metrics.activeTasks + RegisterMetrics). It is opt-in: nothing in this
// package touches Prometheus unless a caller calls RegisterMetrics.
type Metrics struct {
	activeNodes   prometheus.GaugeFunc
	detachedNodes prometheus.GaugeFunc
	liveContexts  prometheus.GaugeFunc
}

// RegisterMetrics registers gauges tracking r's live registrations and, for
// each of them, their tree's active/detached node counts, against reg.
// Calling it more than once with the same reg returns the error reg.Register
// reports for a duplicate collector, and a nil *Metrics.
func RegisterMetrics(reg prometheus.Registerer, r *Registry) (*Metrics, error) {
	m := &Metrics{
		activeNodes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "awaittree",
			Name:      "active_nodes",
			Help:      "Sum of active (non-removed) nodes across every live tree in the registry.",
		}, func() float64 {
			return sumTreeStat(r, (*Tree).ActiveNodeCount)
		}),
		detachedNodes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "awaittree",
			Name:      "detached_nodes",
			Help:      "Sum of detached-root nodes across every live tree in the registry.",
		}, func() float64 {
			return sumTreeStat(r, (*Tree).DetachedNodeCount)
		}),
		liveContexts: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "awaittree",
			Name:      "live_contexts",
			Help:      "Number of registry entries whose Context has not yet been collected.",
		}, func() float64 {
			return float64(len(r.CollectAll()))
		}),
	}
	for _, c := range []prometheus.Collector{m.activeNodes, m.detachedNodes, m.liveContexts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func sumTreeStat(r *Registry, stat func(*Tree) int) float64 {
	total := 0
	for _, tc := range r.CollectAll() {
		total += stat(tc.Snapshot())
	}
	return float64(total)
}
