package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNetError struct {
	msg     string
	timeout bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

func retryConfig(attempts int, initial, maxBackoff time.Duration) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    common.NewDuration(initial),
		MaxBackoff:        common.NewDuration(maxBackoff),
		BackoffMultiplier: 2.0,
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil error"},
		{name: "net error", err: &mockNetError{msg: "network timeout", timeout: true}, retryable: true},
		{name: "net.OpError", err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, retryable: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, retryable: true},
		{name: "wrapped connection reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), retryable: true},
		{name: "broken pipe", err: syscall.EPIPE, retryable: true},
		{name: "context deadline exceeded", err: context.DeadlineExceeded, retryable: true},
		{name: "rate limit 429", err: errors.New("HTTP 429"), retryable: true},
		{name: "rate limit message", err: errors.New("rate limit exceeded"), retryable: true},
		{name: "bad gateway", err: errors.New("502 bad gateway"), retryable: true},
		{name: "service unavailable", err: errors.New("503 Service Unavailable"), retryable: true},
		{name: "gateway timeout", err: errors.New("504 Gateway Timeout"), retryable: true},
		{name: "connection pool exhausted", err: errors.New("connection pool exhausted"), retryable: true},
		{name: "unexpected eof", err: errors.New("unexpected EOF"), retryable: true},
		{name: "invalid parameter", err: errors.New("invalid parameter")},
		{name: "unauthorized", err: errors.New("401 Unauthorized")},
		{name: "not found", err: errors.New("404 Not Found")},
		{name: "header not found", err: errHeaderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := retryConfig(10, time.Second, 30*time.Second)

	tests := []struct {
		attempt  int
		min, max time.Duration
	}{
		{attempt: 1, min: 0, max: 0},
		{attempt: 2, min: 750 * time.Millisecond, max: 1250 * time.Millisecond},
		{attempt: 3, min: 1500 * time.Millisecond, max: 2500 * time.Millisecond},
		{attempt: 5, min: 6 * time.Second, max: 10 * time.Second},
		{attempt: 20, min: 22500 * time.Millisecond, max: 37500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			for range 10 {
				backoff := calculateBackoff(tt.attempt, cfg)
				assert.GreaterOrEqual(t, backoff, tt.min)
				assert.LessOrEqual(t, backoff, tt.max)
			}
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	transient := &mockNetError{msg: "temporary error", timeout: true}
	permanent := errors.New("invalid parameter")

	tests := []struct {
		name      string
		cfg       *config.RetryConfig
		failures  int
		failWith  error
		wantCalls int
		wantErr   string
	}{
		{name: "first attempt succeeds", cfg: retryConfig(3, time.Millisecond, 10*time.Millisecond), wantCalls: 1},
		{
			name: "succeeds after retries", cfg: retryConfig(5, time.Millisecond, 10*time.Millisecond),
			failures: 2, failWith: transient, wantCalls: 3,
		},
		{
			name: "non-retryable error", cfg: retryConfig(5, time.Millisecond, 10*time.Millisecond),
			failures: 5, failWith: permanent, wantCalls: 1, wantErr: "non-retryable error",
		},
		{
			name: "attempts exhausted", cfg: retryConfig(3, time.Millisecond, 10*time.Millisecond),
			failures: 5, failWith: transient, wantCalls: 3, wantErr: "all 3 attempts failed",
		},
		{name: "nil config runs once", failures: 1, failWith: permanent, wantCalls: 1, wantErr: "invalid parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryWithBackoff(context.Background(), tt.cfg, "test", func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
			require.ErrorIs(t, err, tt.failWith)
		})
	}
}

func TestRetryWithBackoffContext(t *testing.T) {
	t.Run("cancelled between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := 0
		err := retryWithBackoff(ctx, retryConfig(5, 10*time.Millisecond, 100*time.Millisecond), "test", func() error {
			calls++
			if calls == 2 {
				cancel()
			}
			return &mockNetError{msg: "temporary error", timeout: true}
		})

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
	})

	t.Run("deadline during backoff", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		calls := 0
		err := retryWithBackoff(ctx, retryConfig(10, 100*time.Millisecond, time.Second), "test", func() error {
			calls++
			return &mockNetError{msg: "temporary error", timeout: true}
		})

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, calls, 10)
	})
}
