package metrics

import (
	"github.com/l3montree-dev/lowpot/packages/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use through a nil pointer, in which case nothing is recorded.
type Metrics struct {
	attempts       *prometheus.CounterVec
	connections    *prometheus.CounterVec
	active         *prometheus.GaugeVec
	logWriteErrors prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lowpot_attempts_total",
			Help: "Attempt records written to the event log",
		}, []string{"service"}),
		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lowpot_connections_total",
			Help: "Accepted connections",
		}, []string{"service"}),
		active: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lowpot_active_connections",
			Help: "Connections currently held by a handler",
		}, []string{"service"}),
		logWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "lowpot_log_write_errors_total",
			Help: "Attempt records that could not be persisted",
		}),
	}
}

// ConnectionOpened returns the function to call once the connection is done.
func (m *Metrics) ConnectionOpened(service types.Service) func() {
	if m == nil {
		return func() {}
	}
	m.connections.WithLabelValues(string(service)).Inc()
	gauge := m.active.WithLabelValues(string(service))
	gauge.Inc()
	return gauge.Dec
}

func (m *Metrics) LogWriteFailed() {
	if m == nil {
		return
	}
	m.logWriteErrors.Inc()
}

// AttemptRecorded counts one record that reached the event log.
func (m *Metrics) AttemptRecorded(service types.Service) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(string(service)).Inc()
}
