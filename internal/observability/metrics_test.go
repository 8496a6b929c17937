package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/login", "POST", 401, 5*time.Millisecond)
	m.RecordError("/api/login", "POST", "INVALID_CREDENTIALS")
	m.RecordAccount("created")
	m.RecordAccount("created")
	m.RecordRequestSubmitted("passport", true)
	m.RecordRequestSubmitted("passport", false)
	m.RecordLogin(LoginLocked)
	m.RecordLockout()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/login", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("POST", "/api/login", "INVALID_CREDENTIALS")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.accounts.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsSubmitted.WithLabelValues("passport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guestsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginLocked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockouts))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordAccount("created")
		m.RecordRequestSubmitted("id", true)
		m.RecordLogin(LoginSuccess)
		m.RecordLockout()
	})
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = NewMetrics()
		_ = NewMetrics()
	})
}
