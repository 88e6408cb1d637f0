package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

type readyBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func ready(t *testing.T, h health.Handler) (int, readyBody) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var body readyBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReady(t *testing.T) {
	cases := []struct {
		name    string
		checker health.Checker
		code    int
		status  string
		checks  map[string]string
	}{
		{
			name:    "all up",
			checker: stubChecker{},
			code:    http.StatusOK, status: "ok",
			checks: map[string]string{"db": "ok", "redis": "ok"},
		},
		{
			name:    "database down",
			checker: stubChecker{dbErr: errors.New("db down")},
			code:    http.StatusServiceUnavailable, status: "unavailable",
			checks: map[string]string{"db": "db down", "redis": "ok"},
		},
		{
			name:    "redis not configured",
			checker: stubChecker{redisErr: health.ErrNotConfigured},
			code:    http.StatusOK, status: "ok",
			checks: map[string]string{"db": "ok", "redis": "skipped"},
		},
		{
			name: "no checker",
			code: http.StatusServiceUnavailable, status: "unavailable",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := ready(t, health.Handler{Checker: tc.checker, DBTimeout: 10 * time.Millisecond})
			require.Equal(t, tc.code, code)
			require.Equal(t, tc.status, body.Status)
			if tc.checks != nil {
				require.Equal(t, tc.checks, body.Checks)
			}
		})
	}
}

func TestReadyDrainsAfterShutdownBegins(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	h := health.Handler{Checker: stubChecker{}}

	code, _ := ready(t, h)
	require.Equal(t, http.StatusOK, code)

	health.SetReady(false)
	code, body := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "draining", body.Status)
}
