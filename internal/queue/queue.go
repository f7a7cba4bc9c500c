// Package queue implements the action queue (C9): a bounded
// multi-producer/single-consumer channel between arbitrary producer
// goroutines (UI input, shortcut scanning, external collaborators posting
// completion events) and the single UI-thread consumer that drains and
// applies a batch once per frame.
//
// Go's buffered channels already give a wait-free-enough producer path
// (a non-blocking send that fails over to ErrFull rather than blocking)
// and a single consumer draining in enqueue order, without reaching for a
// hand-rolled lock-free ring buffer: no third-party lock-free queue
// appears anywhere in the retrieval pack, so this is built on the
// standard library's channel primitive rather than invented from
// scratch.
package queue

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/logging"
)

// ErrFull is returned by Enqueue when the queue is at capacity. Producers
// are expected to drop or retry next frame; the queue never blocks a
// producer.
var ErrFull = errors.New("queue: full")

// Entry pairs an action with its enqueue timestamp, per §5's
// (action, timestamp) queue element.
type Entry struct {
	Action     action.Action
	Timestamp  time.Time
}

// Queue is a bounded channel-backed action queue. The zero value is not
// valid; use New.
type Queue struct {
	ch chan Entry
}

// New returns a Queue with the given bounded capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Entry, capacity)}
}

// Enqueue offers a to the queue. It never blocks: if the queue is full,
// it returns ErrFull immediately, satisfying the wait-free-producer
// requirement in §5.
func (q *Queue) Enqueue(a action.Action) error {
	select {
	case q.ch <- Entry{Action: a, Timestamp: time.Now()}:
		return nil
	default:
		logging.ActionWarn("queue full, dropping %s.%s", a.Namespace(), a.Leaf())
		return ErrFull
	}
}

// Frame is one per-frame drain: a correlation id for tracing a frame's
// actions through structured logs, and the entries dequeued in arrival
// order.
type Frame struct {
	ID      uuid.UUID
	Entries []Entry
}

// DrainFrame dequeues every entry currently available without blocking,
// preserving FIFO order, and tags the batch with a fresh correlation id.
// Called once per frame by the UI thread; never called concurrently with
// itself.
func (q *Queue) DrainFrame() Frame {
	frame := Frame{ID: uuid.New()}
	for {
		select {
		case e := <-q.ch:
			frame.Entries = append(frame.Entries, e)
		default:
			return frame
		}
	}
}

// Len reports the number of entries currently buffered. Racy by nature
// (producers may be enqueuing concurrently) and intended only for
// diagnostics/metrics, never for control flow.
func (q *Queue) Len() int {
	return len(q.ch)
}
