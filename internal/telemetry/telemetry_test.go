package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Disabled(t *testing.T) {
	b, err := Setup(context.Background(), &config.Config{})
	require.NoError(t, err)

	assert.False(t, b.MetricsEnabled())
	assert.NotNil(t, b.Meter())

	rec := httptest.NewRecorder()
	b.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.NoError(t, b.Shutdown(context.Background()))
}

func TestExchangeMetrics_Exposed(t *testing.T) {
	cfg := &config.Config{
		Telemetry: config.TelemetryConfig{ServiceName: "cms-oauth-relay-test"},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
	b, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })
	require.True(t, b.MetricsEnabled())

	m, err := NewExchangeMetrics(b)
	require.NoError(t, err)
	m.Record(context.Background(), "success", 120*time.Millisecond)
	m.Record(context.Background(), "token_missing", 80*time.Millisecond)

	srv := httptest.NewServer(b.MetricsHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "relay_token_exchanges")
	assert.Contains(t, string(body), "relay_token_exchange_duration")
	assert.Contains(t, string(body), `outcome="token_missing"`)
}

func TestExchangeMetrics_NilIsNoop(t *testing.T) {
	var m *ExchangeMetrics
	assert.NotPanics(t, func() {
		m.Record(context.Background(), "success", time.Second)
	})
}

func TestExchangeMetrics_NoopMeter(t *testing.T) {
	m, err := NewExchangeMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.Record(context.Background(), "exchange_failed", time.Second)
	})
}
