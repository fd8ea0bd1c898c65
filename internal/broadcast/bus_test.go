package broadcast_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/stockbell/internal/broadcast"
	"github.com/shaharia-lab/stockbell/internal/shop"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func snapshot(id int64) *shop.Snapshot {
	return &shop.Snapshot{ReportedAt: id, Seeds: []shop.Item{{Name: "Mango", Qty: 1}}, Gear: []shop.Item{}}
}

func TestBus_PublishAndReceive(t *testing.T) {
	bus := broadcast.NewBus(2, newTestLogger())
	defer bus.Close()

	var (
		mu       sync.Mutex
		received []string
	)
	bus.Subscribe(func(_ context.Context, snap *shop.Snapshot) {
		mu.Lock()
		received = append(received, snap.ID())
		mu.Unlock()
	})

	require.NoError(t, bus.Publish(context.Background(), snapshot(1000)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1 && received[0] == "1000"
	}, time.Second, 5*time.Millisecond)
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := broadcast.NewBus(2, newTestLogger())
	defer bus.Close()

	var count int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(context.Context, *shop.Snapshot) {
			atomic.AddInt32(&count, 1)
		})
	}

	require.NoError(t, bus.Publish(context.Background(), snapshot(1000)))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&count) == 3 }, time.Second, 5*time.Millisecond)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := broadcast.NewBus(1, newTestLogger())

	var count int32
	unsubscribe := bus.Subscribe(func(context.Context, *shop.Snapshot) {
		atomic.AddInt32(&count, 1)
	})
	unsubscribe()
	unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), snapshot(1000)))
	require.NoError(t, bus.Close())

	assert.EqualValues(t, 0, atomic.LoadInt32(&count))
}

func TestBus_HandlerPanicDoesNotCrash(t *testing.T) {
	bus := broadcast.NewBus(1, newTestLogger())
	defer bus.Close()

	var goodCalled int32
	bus.Subscribe(func(context.Context, *shop.Snapshot) {
		panic("intentional panic in handler")
	})
	bus.Subscribe(func(context.Context, *shop.Snapshot) {
		atomic.AddInt32(&goodCalled, 1)
	})

	require.NoError(t, bus.Publish(context.Background(), snapshot(1000)))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&goodCalled) == 1 }, time.Second, 5*time.Millisecond)
}

func TestBus_CloseDrainsAndRejects(t *testing.T) {
	bus := broadcast.NewBus(2, newTestLogger())

	var count int32
	bus.Subscribe(func(context.Context, *shop.Snapshot) {
		atomic.AddInt32(&count, 1)
	})

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), snapshot(i)))
	}
	require.NoError(t, bus.Close())
	assert.EqualValues(t, 5, atomic.LoadInt32(&count))

	assert.ErrorIs(t, bus.Publish(context.Background(), snapshot(6)), broadcast.ErrClosed)
	assert.NoError(t, bus.Close())
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := broadcast.NewBus(1, newTestLogger())
	release := make(chan struct{})
	bus.Subscribe(func(context.Context, *shop.Snapshot) { <-release })

	var dropped bool
	for i := int64(1); i <= 200; i++ {
		if err := bus.Publish(context.Background(), snapshot(i)); err != nil {
			assert.ErrorIs(t, err, broadcast.ErrBufferFull)
			dropped = true
			break
		}
	}
	assert.True(t, dropped, "a blocked subscriber must not block Publish forever")

	close(release)
	require.NoError(t, bus.Close())
}
