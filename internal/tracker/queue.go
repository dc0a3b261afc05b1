package tracker

import "sync"

// stepQueue is a thread-safe FIFO queue of step events.
//
// The queue is unbounded: the feed is the sole producer and delivery rate
// bounds backpressure naturally, so blocking the session on a full buffer
// would only add a second place for ordering bugs to hide.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type stepQueue struct {
	mu     sync.Mutex
	events []StepEvent
	closed bool
	signal chan struct{} // signals event availability (buffered, size 1)
}

func newStepQueue() *stepQueue {
	return &stepQueue{
		events: make([]StepEvent, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *stepQueue) Enqueue(ev StepEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, ev)

	// Non-blocking - buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front event without blocking.
func (q *stepQueue) TryDequeue() (StepEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return StepEvent{}, false
	}

	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// Close marks the queue closed. Subsequent Enqueue calls return false;
// already-queued events remain dequeueable.
func (q *stepQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Wait returns a channel that signals when events may be available.
func (q *stepQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events.
func (q *stepQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drained reports whether the queue is closed and empty.
func (q *stepQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}
