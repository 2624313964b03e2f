package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timeoutError implements net.Error semantics for tests.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func instantConfig(maxAttempts int) Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.Jitter = false
	cfg.After = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return cfg
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), instantConfig(3), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), instantConfig(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return timeoutError{}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), instantConfig(3), func(ctx context.Context) error {
		calls++
		return timeoutError{}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var exceeded *RetriesExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 3, exceeded.Attempts)
	assert.Equal(t, "max attempts exceeded", exceeded.Reason)
}

func TestDo_NonRetryableErrorReturnedImmediately(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), instantConfig(5), func(ctx context.Context) error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, instantConfig(3), func(ctx context.Context) error {
		return timeoutError{}
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := instantConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(context.Background(), cfg, func(ctx context.Context) error {
		return timeoutError{}
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_MaxElapsedTime(t *testing.T) {
	now := time.Now()
	cfg := instantConfig(10)
	cfg.MaxElapsedTime = 1 * time.Second
	cfg.InitialDelay = 600 * time.Millisecond
	cfg.Now = func() time.Time { return now }

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		// simulate time passing between attempts
		now = now.Add(500 * time.Millisecond)
		return timeoutError{}
	})

	var exceeded *RetriesExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, "max elapsed time exceeded", exceeded.Reason)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"zero initial delay", func(c *Config) { c.InitialDelay = 0 }, true},
		{"initial above max", func(c *Config) { c.InitialDelay = time.Minute }, true},
		{"multiplier below one", func(c *Config) { c.Multiplier = 0.5 }, true},
		{"negative elapsed", func(c *Config) { c.MaxElapsedTime = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCalculateDelay(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 1 * time.Second, Multiplier: 2.0}

	assert.Equal(t, 100*time.Millisecond, cfg.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, cfg.calculateDelay(2))
	assert.Equal(t, 400*time.Millisecond, cfg.calculateDelay(3))
	assert.Equal(t, 800*time.Millisecond, cfg.calculateDelay(4))
	assert.Equal(t, 1*time.Second, cfg.calculateDelay(5))
	assert.Equal(t, 1*time.Second, cfg.calculateDelay(10))
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"timeout", timeoutError{}, true},
		{"eof", io.EOF, true},
		{"net closed", net.ErrClosed, true},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"plain", errors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryable(tt.err))
		})
	}
}

func TestRetryWithAttempts(t *testing.T) {
	calls := 0
	err := RetryWithAttempts(context.Background(), 1, func(ctx context.Context) error {
		calls++
		return timeoutError{}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
