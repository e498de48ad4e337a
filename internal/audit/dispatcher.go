package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering. FlushTimeout bounds how long Close
// keeps delivering queued events; zero waits for the whole queue.
type Config struct {
	Enabled      bool
	BufferSize   int
	DropIfFull   bool
	FlushTimeout time.Duration
}

// Dispatcher hands events to a sink from one goroutine, in emit order. A nil
// *Dispatcher is valid and discards everything.
type Dispatcher struct {
	cfg  Config
	sink Sink

	// mu guards closing queue against in-flight sends.
	mu     sync.RWMutex
	closed bool
	queue  chan Event

	// stopping releases emitters blocked on a full queue during Close.
	stopping  chan struct{}
	finished  chan struct{}
	abandon   atomic.Bool
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher, or returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:      cfg,
		sink:     sink,
		queue:    make(chan Event, cfg.BufferSize),
		stopping: make(chan struct{}),
		finished: make(chan struct{}),
	}
	go d.deliver()
	return d
}

// deliver runs until the queue is closed and empty. Once Close gives up
// waiting, whatever is left is counted as dropped instead of delivered.
func (d *Dispatcher) deliver() {
	defer close(d.finished)

	for event := range d.queue {
		if d.abandon.Load() {
			d.dropped.Add(1)
			continue
		}
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. With DropIfFull a full queue drops the event at once,
// otherwise Emit waits for room until ctx ends.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stopping:
		d.dropped.Add(1)
	}
}

// Close stops accepting events and flushes what is queued. When FlushTimeout
// passes first, Close returns and the remainder is counted in Dropped.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.stopping)

		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		if d.cfg.FlushTimeout <= 0 {
			<-d.finished
			return
		}

		timer := time.NewTimer(d.cfg.FlushTimeout)
		defer timer.Stop()
		select {
		case <-d.finished:
		case <-timer.C:
			d.abandon.Store(true)
		}
	})
}

// Dropped returns the number of events discarded for backpressure or left
// undelivered at Close.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
