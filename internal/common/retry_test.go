package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		failWith  error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first time", failures: 0, attempts: 4, wantCalls: 1},
		{name: "recovers after transient failures", failures: 2, failWith: Transient(errBoom), attempts: 4, wantCalls: 3},
		{name: "gives up after max attempts", failures: 10, failWith: errBoom, attempts: 4, wantCalls: 4, wantErr: ErrMaxRetries},
		{name: "terminal error stops immediately", failures: 10, failWith: Terminal(errBoom), attempts: 4, wantCalls: 1, wantErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			}, fastRetry(tt.attempts))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_OnRetryCallback(t *testing.T) {
	var retried []int
	opts := fastRetry(3)
	opts.OnRetry = func(attempt int, _ error) {
		retried = append(retried, attempt)
	}

	err := WithRetry(context.Background(), func() error {
		return errors.New("always")
	}, opts)

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithRetry_UsesLogger(t *testing.T) {
	var buf bytes.Buffer
	opts := fastRetry(2)
	opts.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	err := WithRetry(context.Background(), func() error {
		return Transient(errors.New("flaky"))
	}, opts)

	require.Error(t, err)
	assert.Contains(t, buf.String(), "Operation failed, retrying")
	assert.Contains(t, buf.String(), "flaky")
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastRetry(5)
	opts.InitialDelay = time.Second

	err := WithRetry(ctx, func() error {
		return errors.New("fail")
	}, opts)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient(errors.New("x"))))
	assert.False(t, IsRetryable(Terminal(errors.New("x"))))
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	err := NewUserError("Não foi possível responder", errors.New("upstream"))
	assert.Equal(t, "Não foi possível responder", UserMessage(err, "fallback"))
	assert.Equal(t, "fallback", UserMessage(errors.New("raw"), "fallback"))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
