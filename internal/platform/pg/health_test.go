package pg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHealthCheckOptions(t *testing.T) {
	opts := DefaultHealthCheckOptions()

	assert.Equal(t, 10, opts.MaxRetries)
	assert.Equal(t, 1*time.Second, opts.InitialInterval)
	assert.Equal(t, 30*time.Second, opts.MaxInterval)
	assert.Equal(t, 5*time.Second, opts.PingTimeout)
}

func TestWaitForDB_ExhaustsRetries(t *testing.T) {
	opts := HealthCheckOptions{
		MaxRetries:      2,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		PingTimeout:     100 * time.Millisecond,
	}

	// Порт 1 закрыт, подключение не удастся
	err := WaitForDB(context.Background(), "postgres://u@127.0.0.1:1/db?sslmode=disable", opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempts")
}

func TestWaitForDB_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultHealthCheckOptions()
	err := WaitForDB(ctx, "postgres://u@127.0.0.1:1/db?sslmode=disable", opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealthCheckPool_NilPool(t *testing.T) {
	err := HealthCheckPool(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool is nil")
}
