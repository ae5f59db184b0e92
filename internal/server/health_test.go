package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getHealth(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth_Liveness(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := getHealth(t, ts.server.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthStatusOK, body["status"])
}

func TestHealth_Readiness(t *testing.T) {
	sc := NewServerContext(context.Background())
	dbErr := errors.New("database is closed")
	var failing bool
	sc.AddCheck("database", func(context.Context) error {
		if failing {
			return dbErr
		}
		return nil
	})
	h := NewHealthChecker(sc)

	code, body := getHealth(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"ready": "ok", "shutdown": "ok", "database": "ok"}, body["checks"])

	failing = true
	code, body = getHealth(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthStatusNotReady, body["status"])
	assert.Equal(t, healthStatusFailing, body["checks"].(map[string]any)["database"])
}

func TestHealth_NotReady(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)
	assert.False(t, h.IsReady())

	code, _ := getHealth(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, body := getHealth(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthStatusNotReady, body["status"])
}

func TestHealth_ShuttingDown(t *testing.T) {
	sc := NewServerContext(context.Background())
	sc.AddCheck("database", func(context.Context) error { return nil })
	h := NewHealthChecker(sc)

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.Error(t, sc.Context().Err())

	code, body := getHealth(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthStatusShuttingDown, body["status"])
	assert.Equal(t, []any{"database"}, body["checks"])

	code, _ = getHealth(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.server.config.Addr = "127.0.0.1:0"

	done := make(chan error, 1)
	go func() { done <- ts.server.Start() }()

	require.Eventually(t, func() bool {
		return ts.server.Addr() != "127.0.0.1:0"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ts.server.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ts.server.Shutdown(ctx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
	assert.False(t, ts.server.Health().IsReady())
}
