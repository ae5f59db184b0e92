package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetbook/internal/instrumentation"
)

func createTestProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "meetbook-test",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func createDisabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:    "meetbook-test",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	require.NoError(t, err)
	return provider
}

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		provider    func(t *testing.T) *instrumentation.Provider
		addr        string
		errContains string
	}{
		{name: "valid config", provider: createTestProvider, addr: ":9090"},
		{name: "default addr", provider: createTestProvider},
		{
			name:        "nil provider",
			provider:    func(*testing.T) *instrumentation.Provider { return nil },
			errContains: "instrumentation provider is required",
		},
		{
			name:        "disabled provider",
			provider:    createDisabledProvider,
			errContains: "instrumentation provider is not enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewMetricsServer(MetricsServerConfig{
				Addr:                    tt.addr,
				InstrumentationProvider: tt.provider(t),
			})
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, srv)
			if tt.addr == "" {
				assert.Equal(t, DefaultMetricsAddr, srv.Addr())
			}
		})
	}
}

func TestMetricsServer_ServesMetrics(t *testing.T) {
	provider := createTestProvider(t)
	provider.Metrics().RecordMeetingLink(context.Background(), "fallback", true)

	srv, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    "127.0.0.1:0",
		InstrumentationProvider: provider,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	var base string
	require.Eventually(t, func() bool {
		base = "http://" + srv.Addr()
		return srv.Addr() != "127.0.0.1:0"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "meeting_links_total")

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.True(t, errors.Is(<-done, http.ErrServerClosed))
}

func TestMetricsServer_ShutdownBeforeStart(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: createTestProvider(t)})
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
