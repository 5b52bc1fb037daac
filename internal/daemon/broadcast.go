package daemon

import (
	"context"
	"sync"
)

// Broadcast is a one-slot, overwrite-on-publish fan-out channel. Unlike a
// buffered Go channel, it never queues: a Publish that arrives before a slow
// subscriber has consumed the previous value simply replaces it, and that
// subscriber's next Next call observes the replacement, not the skipped
// value. This mirrors the single published load map retained by the
// Broadcast Service — there is exactly one current value, shared by
// reference with every subscriber.
type Broadcast[T any] struct {
	mu     sync.Mutex
	ready  chan struct{}
	value  T
	seq    uint64
	closed bool
}

// NewBroadcast returns an empty, open Broadcast.
func NewBroadcast[T any]() *Broadcast[T] {
	return &Broadcast[T]{ready: make(chan struct{})}
}

// Publish makes v the current value, waking every subscriber blocked in
// Next. It must not be called after Close.
func (b *Broadcast[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.value = v
	b.seq++
	close(b.ready)
	b.ready = make(chan struct{})
}

// Close terminates the broadcast. Every subscriber currently blocked in
// Next, and every future call to Next, returns ErrBroadcastClosed.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ready)
}

// Subscribe returns a handle that observes only values published after this
// call; it never replays the current value to a late joiner.
func (b *Broadcast[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Subscription[T]{b: b, lastSeq: b.seq}
}

// Subscription is a single subscriber's view of a Broadcast. It is not safe
// for concurrent use by multiple goroutines.
type Subscription[T any] struct {
	b       *Broadcast[T]
	lastSeq uint64
}

// Next blocks until a value newer than the last one this subscription
// observed is published, then returns it. If one or more intervening
// publications were missed entirely (this subscriber was slow), Next
// returns ErrLagged instead of a value; the subscriber has resynchronised
// to the newest sequence number and should call Next again to wait for the
// next fresh value. A subscription created before the first publication is
// not reported as lagged on its first Next: that call returns the newest
// value however many publications it missed.
// Next returns ErrBroadcastClosed once the broadcast is
// closed, and the ctx error if ctx is cancelled first.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	b := s.b
	b.mu.Lock()
	for !b.closed && b.seq == s.lastSeq {
		ready := b.ready
		b.mu.Unlock()
		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
		b.mu.Lock()
	}
	defer b.mu.Unlock()

	if b.closed {
		var zero T
		return zero, ErrBroadcastClosed
	}

	if s.lastSeq != 0 && b.seq > s.lastSeq+1 {
		s.lastSeq = b.seq
		var zero T
		return zero, ErrLagged
	}

	value := b.value
	s.lastSeq = b.seq
	return value, nil
}
