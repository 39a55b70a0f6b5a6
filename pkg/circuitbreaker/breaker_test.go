package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestBreaker(cooldown time.Duration) *CircuitBreaker {
	return New("test", Config{
		MaxRequests:      1,
		Cooldown:         cooldown,
		FailureThreshold: 3,
		SuccessThreshold: 2,
	})
}

func fail(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func() error { return errBoom })
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func() error { return nil })
}

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, fail(cb), errBoom)
	}
	require.Equal(t, StateOpen, cb.State())

	require.ErrorIs(t, fail(cb), ErrCircuitOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	require.Error(t, fail(cb))
	require.Error(t, fail(cb))
	require.NoError(t, succeed(cb))
	require.Error(t, fail(cb))
	require.Error(t, fail(cb))
	require.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenAfterCooldown(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())
}

func TestClosesAfterSuccessThreshold(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, succeed(cb))
	require.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, succeed(cb))
	require.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}
	time.Sleep(20 * time.Millisecond)

	require.ErrorIs(t, fail(cb), errBoom)
	require.Equal(t, StateOpen, cb.State())
}

func TestHalfOpenLimitsProbes(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}
	time.Sleep(20 * time.Millisecond)

	blocked := make(chan struct{})
	release := make(chan struct{})
	go cb.Execute(context.Background(), func() error {
		close(blocked)
		<-release
		return nil
	})

	<-blocked
	err := succeed(cb)
	require.ErrorIs(t, err, ErrTooManyRequests)
	close(release)
}

func TestCancelledContext(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func() error {
		t.Fatal("fn should not run with a cancelled context")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
