package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(NewRegistry())

	m.Message("command")
	m.Message("command")
	m.Denied("banned")
	m.Delivery(true)
	m.Delivery(false)
	m.Delivery(true)
	m.PersistenceError("user_profiles.json")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Messages.WithLabelValues("command")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Denials.WithLabelValues("banned")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BroadcastDelivered.WithLabelValues("sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BroadcastDelivered.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PersistenceErrors.WithLabelValues("user_profiles.json")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Message("text")
		m.Denied("not_admin")
		m.Registration("accepted")
		m.Delivery(false)
		m.PersistenceError("x")
	})
}

func TestHandler_ExposesCollectors(t *testing.T) {
	registry := NewRegistry()
	m := NewMetrics(registry)
	m.Registration("accepted")

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `bot_registrations_total{outcome="accepted"} 1`))
}
