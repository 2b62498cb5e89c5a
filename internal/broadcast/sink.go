// Package broadcast implements an in-process replay-then-live multicast sink.
//
// A Sink keeps an append-only log of published items. Each Subscription owns
// a read cursor into that log, so a new subscriber first reads the retained
// history in publish order and then blocks for live items. Publishing never
// waits on subscribers: it appends under the lock and wakes every waiter by
// closing the current notify channel and installing a fresh one.
//
//	sink := broadcast.New[domain.MovieInfo]()
//	defer sink.Close()
//	_ = sink.Publish(info)
//
//	sub := sink.Subscribe()
//	defer sub.Close()
//	for {
//		item, err := sub.Next(ctx)
//		if err != nil {
//			return err
//		}
//		// ...
//	}
package broadcast

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrClosed is returned by Publish after Close, and by Subscription.Next once
// the sink is closed and the subscription has drained the log.
var ErrClosed = errors.New("broadcast: sink closed")

// Option configures a Sink.
type Option func(*options)

type options struct {
	historyLimit int
}

// WithHistoryLimit bounds the replay history to the newest n items. Values
// <= 0 keep the history unbounded, which is the default.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}

// Sink is a multicast log of T. The zero value is not usable; call New.
type Sink[T any] struct {
	mu       sync.Mutex
	items    []T
	base     uint64 // absolute position of items[0]
	notifyCh chan struct{}
	closed   bool
	subs     int
	limit    int
}

// New constructs an empty sink.
func New[T any](opts ...Option) *Sink[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Sink[T]{
		notifyCh: make(chan struct{}),
		limit:    o.historyLimit,
	}
}

// Publish appends item and wakes every waiting subscriber.
func (s *Sink[T]) Publish(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.items = append(s.items, item)
	if s.limit > 0 && len(s.items) > s.limit {
		drop := len(s.items) - s.limit
		s.items = slices.Clone(s.items[drop:])
		s.base += uint64(drop)
	}
	s.wakeLocked()
	return nil
}

// Subscribe returns a subscription positioned at the oldest retained item.
func (s *Sink[T]) Subscribe() *Subscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs++
	return &Subscription[T]{sink: s, cursor: s.base}
}

// Len reports how many items have ever been published.
func (s *Sink[T]) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base + uint64(len(s.items))
}

// Subscribers reports the number of open subscriptions.
func (s *Sink[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs
}

// Close stops accepting publishes and releases blocked subscribers once they
// have read what is left. Close is idempotent.
func (s *Sink[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.wakeLocked()
}

func (s *Sink[T]) wakeLocked() {
	close(s.notifyCh)
	s.notifyCh = make(chan struct{})
}

// Subscription is one reader of a Sink. It is not safe for concurrent use by
// multiple goroutines; each consumer takes its own subscription.
type Subscription[T any] struct {
	sink   *Sink[T]
	cursor uint64
	once   sync.Once
}

// Next returns the item at the cursor and advances it, blocking until an item
// is published, ctx is done, or the sink is closed and drained.
func (sub *Subscription[T]) Next(ctx context.Context) (T, error) {
	s := sub.sink
	for {
		s.mu.Lock()
		if sub.cursor < s.base {
			// evicted by the history limit; resume at the oldest retained item
			sub.cursor = s.base
		}
		if idx := sub.cursor - s.base; idx < uint64(len(s.items)) {
			item := s.items[idx]
			sub.cursor++
			s.mu.Unlock()
			return item, nil
		}
		if s.closed {
			s.mu.Unlock()
			var zero T
			return zero, ErrClosed
		}
		wait := s.notifyCh
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Close releases the subscription. It does not affect the sink or other
// subscribers.
func (sub *Subscription[T]) Close() {
	sub.once.Do(func() {
		sub.sink.mu.Lock()
		sub.sink.subs--
		sub.sink.mu.Unlock()
	})
}
