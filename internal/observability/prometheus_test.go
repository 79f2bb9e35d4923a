package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/changelens/internal/observability"
)

func TestPrometheusTelemetry_ServesMetrics(t *testing.T) {
	t.Parallel()

	tel, err := observability.NewPrometheusTelemetry()
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	tel.Metrics.ObserveCycle(context.Background(), "published", time.Second)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	tel.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	body := rec.Body.String()
	assert.Contains(t, body, "target_info")
	assert.Contains(t, body, "changelens_cycles")
}

func TestPrometheusTelemetry_IndependentRegistries(t *testing.T) {
	t.Parallel()

	first, err := observability.NewPrometheusTelemetry()
	require.NoError(t, err)
	second, err := observability.NewPrometheusTelemetry()
	require.NoError(t, err)

	assert.NoError(t, first.Shutdown(context.Background()))
	assert.NoError(t, second.Shutdown(context.Background()))
}

func TestPrometheusTelemetry_ServeStopsWithContext(t *testing.T) {
	t.Parallel()

	tel, err := observability.NewPrometheusTelemetry()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tel.Serve(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestPrometheusTelemetry_ServeBadAddr(t *testing.T) {
	t.Parallel()

	tel, err := observability.NewPrometheusTelemetry()
	require.NoError(t, err)

	assert.Error(t, tel.Serve(context.Background(), "not-an-address"))
}
