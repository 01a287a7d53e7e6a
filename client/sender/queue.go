package sender

import (
	"context"
	"sync"
)

// queue is a bounded FIFO of encoded envelopes. Writers push to the back;
// the delivery loop peeks the front and pops only after an ack, so an
// unacknowledged envelope is retransmitted first on reconnect.
type queue struct {
	mu     sync.Mutex
	items  [][]byte
	max    int
	notify chan struct{}
}

func newQueue(max int) *queue {
	return &queue{
		max:    max,
		notify: make(chan struct{}, 1),
	}
}

// push appends an envelope, dropping the oldest one when the queue is full.
// It reports whether a drop happened.
func (q *queue) push(envelope []byte) (dropped bool) {
	q.mu.Lock()
	if len(q.items) >= q.max {
		q.items = q.items[1:]
		dropped = true
	}
	q.items = append(q.items, envelope)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return dropped
}

// peek blocks until an envelope is available or the context is canceled.
func (q *queue) peek(ctx context.Context) ([]byte, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			envelope := q.items[0]
			q.mu.Unlock()
			return envelope, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.notify:
		}
	}
}

func (q *queue) pop() {
	q.mu.Lock()
	if len(q.items) > 0 {
		q.items = q.items[1:]
	}
	q.mu.Unlock()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
