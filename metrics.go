package log4g

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a Hook that counts written lines per level.
type Metrics struct {
	lines    *prometheus.CounterVec
	perLevel [_LVL_MAX_for_checks_only]prometheus.Counter
}

var _ Hook = (*Metrics)(nil)

// NewMetrics creates the counters. They are not registered anywhere, use
// Collectors with the registry of choice.
func NewMetrics(namespace string) *Metrics {
	const subsystem = "log"

	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lines_total",
			Help:      "Number of log lines written, by level.",
		}, []string{"level"}),
	}
	for level := LVL_UNKNOWN; level < _LVL_MAX_for_checks_only; level++ {
		m.perLevel[level] = m.lines.WithLabelValues(LevelLowerNames[level])
	}
	return m
}

// Fire implements Hook.
func (m *Metrics) Fire(level LogLevel) error {
	m.perLevel[normLevel(level)].Inc()
	return nil
}

// Collectors returns the collectors to register.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.lines}
}
