package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckout(reg)

	m.ObserveCheckout("success", 120*time.Millisecond)
	m.ObserveCheckout("success", 80*time.Millisecond)
	m.ObserveCheckout("declined", 10*time.Millisecond)
	m.IncInconsistent()
	m.IncChargeUnknown()
	m.IncChargeUnknown()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.total.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("declined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inconsistent))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chargeUnknown))
}

func TestHTTPAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTP(reg)
	m.Observe(http.MethodGet, "/api/v1/items", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sickfits_http_requests_total{method="GET",route="/api/v1/items",status="200"} 1`)
}

func TestNewCheckout_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCheckout(reg)
	assert.Panics(t, func() { NewCheckout(reg) })
}
