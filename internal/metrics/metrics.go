// Package metrics exposes the operation counters served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts lifecycle operations by entity, operation and result.
type Metrics struct {
	operations *prometheus.CounterVec
}

// New registers the counters with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymtrack",
			Name:      "operations_total",
			Help:      "Lifecycle operations by entity, operation and result.",
		}, []string{"entity", "operation", "result"}),
	}
	reg.MustRegister(m.operations)
	return m
}

// Observe records one finished operation.
func (m *Metrics) Observe(entity, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(entity, operation, result).Inc()
}
