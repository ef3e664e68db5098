package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errService = errors.New("service unavailable")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, OpenTimeout: time.Hour})
	fail := func(context.Context) error { return errService }

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), fail)
		assert.ErrorIs(t, err, errService)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, OpenTimeout: time.Hour})

	cb.Execute(context.Background(), func(context.Context) error { return errService })
	cb.Execute(context.Background(), func(context.Context) error { return errService })
	cb.Execute(context.Background(), func(context.Context) error { return nil })
	cb.Execute(context.Background(), func(context.Context) error { return errService })
	cb.Execute(context.Background(), func(context.Context) error { return errService })

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      time.Nanosecond,
	})

	require.Error(t, cb.Execute(context.Background(), func(context.Context) error { return errService }))
	require.Equal(t, StateOpen, cb.State())
	time.Sleep(time.Millisecond)

	// The probe succeeds and the circuit closes again.
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		OpenTimeout:      time.Nanosecond,
	})

	require.Error(t, cb.Execute(context.Background(), func(context.Context) error { return errService }))
	time.Sleep(time.Millisecond)

	require.Error(t, cb.Execute(context.Background(), func(context.Context) error { return errService }))
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreaker_IsFailureFiltersErrors(t *testing.T) {
	ignored := errors.New("user blocked the bot")
	cb := New("test", Config{
		FailureThreshold: 1,
		OpenTimeout:      time.Hour,
		IsFailure:        func(err error) bool { return !errors.Is(err, ignored) },
	})

	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return ignored })
		assert.ErrorIs(t, err, ignored)
	}
	assert.Equal(t, StateClosed, cb.State())

	require.Error(t, cb.Execute(context.Background(), func(context.Context) error { return errService }))
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New("test", Config{
		FailureThreshold: 1,
		OpenTimeout:      time.Hour,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.Execute(context.Background(), func(context.Context) error { return errService })
	assert.Equal(t, []string{"closed->open"}, transitions)
}
