// Package broadcast fans out state snapshots to subscribers without blocking the publisher.
package broadcast

import "sync"

// Hub delivers published values to every subscriber. Each subscriber channel holds
// at most one pending value; a slow subscriber only ever sees the latest one.
type Hub[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]chan T
}

// Subscribe registers a subscriber. The returned function unsubscribes and closes
// the channel; calling it more than once is safe.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]chan T)
	}

	id := h.next
	h.next++
	ch := make(chan T, 1)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Publish replaces any undelivered value on each subscriber channel with v.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Len returns the number of active subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
