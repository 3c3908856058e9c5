package engine

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/normstate/internal/action"
	"github.com/roach88/normstate/internal/ir"
)

// Outcome labels for the commands counter.
const (
	OutcomeChanged = "changed"
	OutcomeNoop    = "noop"
)

// Metrics exports command and entity counts.
type Metrics struct {
	commands *prometheus.CounterVec
	entities *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "normstate",
			Name:      "commands_total",
			Help:      "Commands applied to the normalized state, by type and outcome.",
		}, []string{"type", "outcome"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "normstate",
			Name:      "entities",
			Help:      "Records currently stored, by schema key.",
		}, []string{"schema"}),
	}
	for _, c := range []prometheus.Collector{m.commands, m.entities} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// observe records one applied command.
func (m *Metrics) observe(t action.Type, prev, next *ir.State) {
	if m == nil {
		return
	}
	if prev == next {
		m.commands.WithLabelValues(string(t), OutcomeNoop).Inc()
		return
	}
	m.commands.WithLabelValues(string(t), OutcomeChanged).Inc()

	for key, inner := range next.Entities {
		m.entities.WithLabelValues(key).Set(float64(len(inner)))
	}
	for key := range prev.Entities {
		if _, ok := next.Entities[key]; !ok {
			m.entities.DeleteLabelValues(key)
		}
	}
}
