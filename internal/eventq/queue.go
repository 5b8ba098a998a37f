// Package eventq provides the unbounded FIFO queue between the watch
// producers and the single leader-loop consumer.
package eventq

import "sync"

// Queue is an unbounded FIFO with non-blocking producers and a channel-based
// consumer side.
//
// The three watch adapters push events concurrently; the leader loop is the
// sole consumer. Push never blocks, so a slow rebalance pass can never back
// up a watch subscription: bursts accumulate in the internal buffer and are
// delivered strictly in arrival order.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	wake   chan struct{}
	closed bool

	out  chan T
	done chan struct{}
}

// New creates a queue and starts its delivery goroutine.
//
// The caller must call Close when done to release the goroutine.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
		done: make(chan struct{}),
	}
	go q.pump()

	return q
}

// Push appends an item. It never blocks and is safe for concurrent use.
// Pushes after Close are dropped.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()

		return
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// C returns the consumer channel. It is closed after Close once all items
// accepted before Close have been delivered or discarded.
func (q *Queue[T]) C() <-chan T {
	return q.out
}

// Len returns the number of buffered, undelivered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Close stops the queue. Buffered items not yet handed to the consumer are
// discarded; the consumer channel is closed.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()

		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.done)
}

// pump moves items from the buffer to the consumer channel, preserving FIFO
// order. It exits when Close is called.
func (q *Queue[T]) pump() {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-q.wake:
				continue
			case <-q.done:
				return
			}
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- item:
		case <-q.done:
			return
		}
	}
}
