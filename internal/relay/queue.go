package relay

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrQueueFull means the worker is not keeping up; the event is lost.
	ErrQueueFull = errors.New("relay queue full")
	// ErrQueueClosed means the queue no longer accepts events (shutdown).
	ErrQueueClosed = errors.New("relay queue closed")
)

// itemKind discriminates what travels through the queue: real events,
// diagnostic pings, and the stop sentinel.
type itemKind int

const (
	itemEvent itemKind = iota
	itemPing
	itemStop
)

type item struct {
	kind itemKind
	ev   Event
	ping string
}

// Queue is the one-directional conduit between the HTTP front end and
// the relay worker: many producers, exactly one consumer, strict FIFO.
// Producers never wait for a result; a full queue is reported
// immediately instead of blocking the caller.
type Queue struct {
	ch     chan item
	closed atomic.Bool
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan item, size)}
}

// Enqueue hands an event to the worker without blocking.
func (q *Queue) Enqueue(ev Event) error {
	return q.push(item{kind: itemEvent, ev: ev})
}

// Ping pushes a diagnostic marker through the queue; the worker logs it.
// Used to verify the worker is alive and consuming.
func (q *Queue) Ping(msg string) error {
	return q.push(item{kind: itemPing, ping: msg})
}

func (q *Queue) push(it item) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- it:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop rejects further producers and sends the stop sentinel. The
// worker drains everything queued before the sentinel, finishes its
// current item, and exits. Safe to call once.
func (q *Queue) Stop() {
	if q.closed.CompareAndSwap(false, true) {
		q.ch <- item{kind: itemStop}
	}
}

// next blocks until an item is available. Only the single worker calls
// this.
func (q *Queue) next() item {
	return <-q.ch
}

// Depth reports how many items are waiting.
func (q *Queue) Depth() int {
	return len(q.ch)
}

// Closed reports whether the queue has stopped accepting producers.
func (q *Queue) Closed() bool {
	return q.closed.Load()
}
