// Package notify provides an in-process fan-out of state snapshots.
//
// Subscribers receive the most recent value published after they subscribed.
// Each subscriber channel holds at most one pending value; when a slow
// subscriber has not drained the previous value it is replaced by the newer
// one, so the publisher never blocks and consumers always converge on the
// latest state.
package notify

import (
	"sync"
)

// Notifier broadcasts values of type T to subscribers
type Notifier[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]chan T
	nextID uint64
	closed bool
}

// New creates an empty notifier
func New[T any]() *Notifier[T] {
	return &Notifier[T]{subs: make(map[uint64]chan T)}
}

// Subscription is a handle to a registered subscriber
type Subscription[T any] struct {
	C <-chan T

	id uint64
	n  *Notifier[T]
}

// Subscribe registers a new subscriber.
// The returned channel is closed by Unsubscribe or Close.
func (n *Notifier[T]) Subscribe() *Subscription[T] {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan T, 1)
	if n.closed {
		close(ch)
		return &Subscription[T]{C: ch, n: n}
	}

	n.nextID++
	n.subs[n.nextID] = ch
	return &Subscription[T]{C: ch, id: n.nextID, n: n}
}

// SubscribeFrom registers a new subscriber whose channel already holds initial
func (n *Notifier[T]) SubscribeFrom(initial T) *Subscription[T] {
	sub := n.Subscribe()

	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subs[sub.id]; ok {
		select {
		case ch <- initial:
		default:
		}
	}
	return sub
}

// Unsubscribe removes the subscription and closes its channel
func (s *Subscription[T]) Unsubscribe() {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	if ch, ok := s.n.subs[s.id]; ok {
		delete(s.n.subs, s.id)
		close(ch)
	}
}

// Publish delivers v to every subscriber without blocking.
// A pending undelivered value is replaced by v.
func (n *Notifier[T]) Publish(v T) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.subs {
		select {
		case ch <- v:
			continue
		default:
		}

		// Drop the stale value, then deliver the latest.
		// Only Publish sends and it holds n.mu, so the second send cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Len returns the number of active subscribers
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Close closes all subscriber channels. Further Publish calls are no-ops.
func (n *Notifier[T]) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		close(ch)
		delete(n.subs, id)
	}
}
