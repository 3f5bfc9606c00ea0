// Package bus is the in-process broadcast channel that mirrors a mutation
// committed against one cache representation into the others, without a
// network round-trip.
//
// Delivery is synchronous, in subscription-registration order, exactly once
// per subscriber per matching record. There is no redelivery: a subscriber
// that registers after a publish never sees it.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Matcher decides whether a published record is relevant to a subscriber.
type Matcher[T any] func(T) bool

// Handler applies a relevant record to the subscriber's own cache
// representation. Handlers run on the publisher's goroutine.
type Handler[T any] func(T)

type subscriber[T any] struct {
	id      uuid.UUID
	matcher Matcher[T]
	handler Handler[T]
	live    atomic.Bool
}

// Subscription is the handle returned by Subscribe. Unsubscribe guarantees
// the handler never fires afterwards, even if a publish is resolving
// subscribers concurrently: liveness is checked on the subscriber itself at
// delivery time, not on a list snapshot captured at subscribe time.
type Subscription struct {
	cancel func()
	once   sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Bus fans published records out to subscribers.
type Bus[T any] struct {
	mu   sync.Mutex
	subs []*subscriber[T]
}

func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers a handler guarded by a matcher and returns its handle.
// A nil matcher matches everything.
func (b *Bus[T]) Subscribe(matcher Matcher[T], handler Handler[T]) *Subscription {
	sub := &subscriber[T]{
		id:      uuid.New(),
		matcher: matcher,
		handler: handler,
	}
	sub.live.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return &Subscription{cancel: func() {
		sub.live.Store(false)
		b.remove(sub.id)
	}}
}

func (b *Bus[T]) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the record synchronously to every live subscriber whose
// matcher accepts it, in registration order. It returns the number of
// handlers invoked.
func (b *Bus[T]) Publish(record T) int {
	b.mu.Lock()
	snapshot := make([]*subscriber[T], len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	delivered := 0
	for _, sub := range snapshot {
		if !sub.live.Load() {
			continue
		}
		if sub.matcher != nil && !sub.matcher(record) {
			continue
		}
		sub.handler(record)
		delivered++
	}
	return delivered
}

// Len returns the current number of subscribers.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
