package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSend(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSend("finance", "webhook", "succeeded", 120*time.Millisecond)
	m.RecordSend("finance", "webhook", "failed", time.Second)
	m.RecordSend("finance", "webhook", "succeeded", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SendsTotal.WithLabelValues("finance", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendsTotal.WithLabelValues("finance", "failed")))
}

func TestInFlightGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SendStarted()
	m.SendStarted()
	m.SendFinished()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendsInFlight))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSend("support", "simulated", "succeeded", time.Second)
		m.SendStarted()
		m.SendFinished()
		m.RecordHTTPRequest("GET", "/api/chats", 200)
	})
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(409))
	assert.Equal(t, "5xx", statusClass(502))
}
