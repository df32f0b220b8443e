package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.PollAttempts.Inc()
	a.PollAttempts.Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(a.PollAttempts))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.PollAttempts))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.BackendRequests.WithLabelValues("fetch order", "ok").Inc()
	m.Reconciliations.WithLabelValues("paid").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `checkout_storefront_requests_total{kind="ok",operation="fetch order"} 1`)
	assert.Contains(t, string(body), `checkout_payments_reconciliations_total{outcome="paid"} 1`)
}
