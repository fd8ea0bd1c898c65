package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

const (
	defaultWorkers    = 2
	defaultBufferSize = 64
)

var _ Coordinator = (*Bus)(nil)

// Bus is the in-process Coordinator. Snapshots are queued on a buffered
// channel and handed to every subscriber by a small worker pool.
type Bus struct {
	ch       chan *shop.Snapshot
	handlers map[uint64]Handler
	nextID   uint64
	closed   bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewBus creates a Bus with the given number of workers. If workers is <= 0,
// defaultWorkers is used.
func NewBus(workers int, logger *slog.Logger) *Bus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		ch:       make(chan *shop.Snapshot, defaultBufferSize),
		handlers: make(map[uint64]Handler),
		logger:   logger,
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for s := range b.ch {
				b.dispatch(s)
			}
		}()
	}
	return b
}

// dispatch calls every handler. A panicking handler does not affect the
// others.
func (b *Bus) dispatch(snap *shop.Snapshot) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("broadcast handler panicked", "report_id", snap.ID(), "panic", r)
				}
			}()
			h(context.Background(), snap)
		}()
	}
}

// Publish enqueues snap for delivery. If the buffer is full the snapshot is
// dropped and ErrBufferFull returned.
func (b *Bus) Publish(_ context.Context, snap *shop.Snapshot) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.ch <- snap:
		return nil
	default:
		b.logger.Warn("broadcast buffer full, dropping snapshot", "report_id", snap.ID())
		return ErrBufferFull
	}
}

// Subscribe adds h for all future snapshots.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Close drains queued snapshots and waits for the workers to finish.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
