package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/rill"
	"github.com/aretw0/rill/internal/config"
	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/internal/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeHandler_MetricsAndTopics(t *testing.T) {
	cfg := config.Default()
	logger := logging.NewNop()
	reg := prometheus.NewRegistry()

	rt, err := NewRuntime(cfg, logger, reg)
	require.NoError(t, err)
	defer rt.Close()
	handler := NewServeHandler(cfg, rt, reg, logger)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/topics/orders", strings.NewReader(`{"value":"A-1"}`)))
	require.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rill_hub_events_total{hub="orders",kind="next"} 1`)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServeHandler_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = false
	logger := logging.NewNop()
	reg := prometheus.NewRegistry()

	rt, err := NewRuntime(cfg, logger, reg)
	require.NoError(t, err)
	defer rt.Close()

	w := httptest.NewRecorder()
	NewServeHandler(cfg, rt, reg, logger).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartRelays_SurvivesTopicCompletion(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	logger := logging.NewNop()
	rt := rill.New()
	defer rt.Close()

	cfg := config.RedisConfig{Addr: mr.Addr(), Channels: []string{"orders"}}
	relays, err := startRelays(ctx, cfg, rt, logger)
	require.NoError(t, err)
	defer disposeRelays(relays, logger)

	publish := func(msg string) {
		_, err := Publish(ctx, cfg, "orders", msg)
		require.NoError(t, err)
	}

	hub, err := rt.Topic("orders")
	require.NoError(t, err)
	first := testutils.NewRecorder[string]()
	hub.Subscribe(first)
	publish("A-1")
	require.Eventually(t, func() bool { return len(first.Values()) == 1 }, time.Second, 5*time.Millisecond)

	hub.OnComplete()

	hub, err = rt.Topic("orders")
	require.NoError(t, err)
	second := testutils.NewRecorder[string]()
	hub.Subscribe(second)
	publish("A-2")
	require.Eventually(t, func() bool { return len(second.Values()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"A-2"}, second.Values())
}

func TestStartRelays_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	rt := rill.New()
	defer rt.Close()
	_, err = startRelays(context.Background(), config.RedisConfig{Addr: addr}, rt, logging.NewNop())
	assert.ErrorContains(t, err, "redis unavailable")
}
