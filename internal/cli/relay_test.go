package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/rill/internal/config"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayAndPublish(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.RedisConfig{Addr: mr.Addr(), Prefix: "rill:"}
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	var buf bytes.Buffer
	p := NewPrinter(&buf, WithJSON(true))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Relay(ctx, cfg, RelayOptions{Channel: "orders", Count: 2}, p)
	}()

	require.Eventually(t, func() bool {
		counts, err := client.PubSubNumSub(ctx, "rill:orders").Result()
		return err == nil && counts["rill:orders"] == 1
	}, time.Second, 5*time.Millisecond)

	for _, msg := range []string{"A-1", "A-2"} {
		n, err := Publish(ctx, cfg, "orders", msg)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	require.NoError(t, <-done)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"value":"A-1"`)
	assert.Contains(t, lines[1], `"value":"A-2"`)
}

func TestRelay_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	err = Relay(context.Background(), config.RedisConfig{Addr: addr}, RelayOptions{Channel: "x"}, NewPrinter(&bytes.Buffer{}))
	assert.Error(t, err)
}
