package diagnostics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/diagnostics"
	"github.com/bidfx-oss/pricing-go/pricing"
)

func newTestRouter(t *testing.T) (*mux.Router, *pricing.Callbacks) {
	t.Helper()
	cb := pricing.NewCallbacks()
	metrics := diagnostics.NewMetrics("pricing-go-test")
	metrics.Instrument(cb)
	server := diagnostics.New(zerolog.Nop(), metrics, cb)

	r := mux.NewRouter()
	server.RegisterRoutes(r, diagnostics.APIPathPrefix)
	return r, cb
}

func TestHealthzReportsAvailable(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, diagnostics.APIPathPrefix+"/healthz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, diagnostics.StatusAvailable, body["status"])
}

func TestSubscriptionsReflectsFiredEvents(t *testing.T) {
	r, cb := newTestRouter(t)

	subject := pricing.ParseSubject("Symbol=EURUSD,Level=1")
	cb.FireSubscription(pricing.SubscriptionEvent{Subject: subject, Status: pricing.SubOK})

	req := httptest.NewRequest(http.MethodGet, diagnostics.APIPathPrefix+"/subscriptions", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]float64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body, subject.String())
}

func TestProvidersReflectsFiredEvents(t *testing.T) {
	r, cb := newTestRouter(t)

	cb.FireProvider(pricing.ProviderEvent{Provider: "Pixie-1", Status: pricing.ProviderReady})

	req := httptest.NewRequest(http.MethodGet, diagnostics.APIPathPrefix+"/providers", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]float64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body, "Pixie-1")
}
