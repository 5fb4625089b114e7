package metrics

import (
	"testing"

	"github.com/l3montree-dev/lowpot/packages/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConnectionOpened(t *testing.T) {
	m := New(prometheus.NewRegistry())

	done := m.ConnectionOpened(types.ServiceSSH)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.active.WithLabelValues("SSH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections.WithLabelValues("SSH")))

	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.active.WithLabelValues("SSH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections.WithLabelValues("SSH")))
}

func TestAttemptRecorded(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AttemptRecorded(types.ServiceFTP)
	m.AttemptRecorded(types.ServiceFTP)
	m.AttemptRecorded(types.ServiceHTTP)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("FTP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("HTTP")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnectionOpened(types.ServiceHTTP)()
		m.LogWriteFailed()
		m.AttemptRecorded(types.ServiceSSH)
	})
}

func TestLogWriteFailed(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.LogWriteFailed()
	m.LogWriteFailed()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logWriteErrors))
}
