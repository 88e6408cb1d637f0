package obs_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/tenant"
)

func TestDomainMetricsRecordsQuotes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewDomainMetrics("pos", registry)

	metrics.Quote("AE", "ok", 1.5)
	metrics.Quote("", "invalid", 0)
	metrics.InvoiceCreated("AE")
	metrics.CacheLookup("hit")
	metrics.ConfigUpdated()
	metrics.Purged("audit_logs", 3)
	metrics.Purged("audit_logs", 0)
	metrics.Limited("quote")

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.TaxQuotes.WithLabelValues("AE", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.TaxQuotes.WithLabelValues("unknown", "invalid")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.InvoicesTotal.WithLabelValues("AE")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ConfigCache.WithLabelValues("hit")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ConfigUpdates))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.QuoteDuration))
	require.Equal(t, float64(3), testutil.ToFloat64(metrics.RowsPurged.WithLabelValues("audit_logs")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.RateLimited.WithLabelValues("quote")))

	again := obs.NewDomainMetrics("pos", registry)
	again.ConfigUpdated()
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.ConfigUpdates))
}

func TestDomainMetricsNilSafe(t *testing.T) {
	var metrics *obs.DomainMetrics
	require.NotPanics(t, func() {
		metrics.Quote("IN", "ok", 1)
		metrics.InvoiceCreated("IN")
		metrics.CacheLookup("miss")
		metrics.ConfigUpdated()
		metrics.Purged("audit_logs", 1)
		metrics.Limited("quote")
	})
}

func TestRequestLoggerIncludesStore(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/quote", nil)
	req = req.WithContext(tenant.WithTenant(req.Context(), "store-42"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	require.True(t, strings.Contains(line, `"store_id":"store-42"`), line)
	require.True(t, strings.Contains(line, `"status":202`), line)
}

func TestRequestLoggerLevelFollowsStatus(t *testing.T) {
	cases := []struct {
		path   string
		status int
		level  string
	}{
		{path: "/api/v1/billing/quote", status: http.StatusOK, level: "info"},
		{path: "/api/v1/billing/quote", status: http.StatusTooManyRequests, level: "warn"},
		{path: "/api/v1/invoices", status: http.StatusInternalServerError, level: "error"},
		{path: "/health/ready", status: http.StatusOK, level: "debug"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
		handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req = req.WithContext(obs.WithRoutePattern(req.Context(), tc.path))
		req.Header.Set("X-Terminal-ID", "till-9")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.Contains(t, buf.String(), `"level":"`+tc.level+`"`, tc.path)
		require.Contains(t, buf.String(), `"terminal_id":"till-9"`)
	}
}
