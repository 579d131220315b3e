package engine

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/roach88/vlayer/internal/input"
)

// payloadQueue is a thread-safe FIFO of payloads awaiting delivery.
//
// The queue is unbounded: a replay log is queued in full before the first
// frame runs. Storage is an eapache/queue ring buffer, which keeps memory
// proportional to the live length as the front is drained.
type payloadQueue struct {
	mu     sync.Mutex
	items  *queue.Queue
	closed bool
}

func newPayloadQueue() *payloadQueue {
	return &payloadQueue{items: queue.New()}
}

// Enqueue adds a payload to the back of the queue.
// Returns false if the queue is closed.
func (q *payloadQueue) Enqueue(p input.Payload) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items.Add(p)
	return true
}

// DequeueIf removes and returns the front payload when accept approves it.
// The front is inspected and removed under one lock so a concurrent
// Enqueue cannot interleave.
func (q *payloadQueue) DequeueIf(accept func(input.Payload) bool) (input.Payload, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Length() == 0 {
		return input.Payload{}, false
	}
	front := q.items.Peek().(input.Payload)
	if !accept(front) {
		return input.Payload{}, false
	}
	q.items.Remove()
	return front, true
}

// Len returns the current queue length.
func (q *payloadQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Close rejects further payloads. Queued payloads remain available to
// DequeueIf.
func (q *payloadQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
