package messaging

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
}

func TestEventBus_PublishRoutesByType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var pointsCalls, levelCalls int32
	require.NoError(t, bus.Subscribe(shared.EventPointsGained, func(e shared.Event) error {
		atomic.AddInt32(&pointsCalls, 1)
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error {
		atomic.AddInt32(&levelCalls, 1)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPointsGainedEvent(100, 2, 52, 7)))

	assert.Equal(t, int32(1), atomic.LoadInt32(&pointsCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&levelCalls))
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var calls int32
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPointsGainedEvent(100, 2, 52, 7)))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent(100, 1, 2, "Ученик")))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var afterPanic int32
	require.NoError(t, bus.Subscribe(shared.EventPointsGained, func(e shared.Event) error {
		panic("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventPointsGained, func(e shared.Event) error {
		atomic.AddInt32(&afterPanic, 1)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPointsGainedEvent(100, 2, 52, 7)))
	assert.Equal(t, int32(1), atomic.LoadInt32(&afterPanic))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	done := make(chan struct{})
	require.NoError(t, bus.Subscribe(shared.EventReminderSent, func(e shared.Event) error {
		close(done)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewReminderSentEvent(100, "promo", "sweep-1")))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	require.NoError(t, bus.Close())
}

func TestEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewPointsGainedEvent(100, 2, 52, 7))
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
