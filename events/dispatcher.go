package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LdDl/perimeter-go/internal/log"
)

// DispatchStats holds dispatcher counters
type DispatchStats struct {
	Delivered int64
	Failed    int64
	Dropped   int64
}

// Dispatcher hands events to a Sink from a background worker.
// Dispatch never blocks the caller: when the queue is full the event is dropped.
// Failed submissions are logged and dropped, never retried.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	queue   chan Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewDispatcher starts worker delivering events to sink.
// queueSize below 1 is treated as 1, non-positive timeout as DefaultSinkTimeout.
func NewDispatcher(sink Sink, queueSize int, timeout time.Duration) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	d := &Dispatcher{
		sink:    sink,
		timeout: timeout,
		queue:   make(chan Event, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch enqueues event. Returns false when the event was dropped
func (d *Dispatcher) Dispatch(event Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		log.Warn("event dropped: dispatcher closed", "event_type", event.EventType, "timestamp", event.Timestamp)
		return false
	}
	select {
	case d.queue <- event:
		return true
	default:
		d.dropped.Add(1)
		log.Warn("event dropped: queue full", "event_type", event.EventType, "timestamp", event.Timestamp)
		return false
	}
}

// Close stops accepting events, waits for queued ones to be submitted
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

// Stats returns snapshot of counters
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		d.submit(event)
	}
}

func (d *Dispatcher) submit(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.sink.Submit(ctx, event); err != nil {
		d.failed.Add(1)
		log.Warn("event submission failed", "event_type", event.EventType, "timestamp", event.Timestamp, "error", err)
		return
	}
	d.delivered.Add(1)
	log.Info("event sent", "event_type", event.EventType, "timestamp", event.Timestamp)
}
