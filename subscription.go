package opruntime

import "sync"

// Cleanup performs a cancellable side effect's teardown. Matches the
// teacher's Cleanup function type (executor.go).
type Cleanup func() error

// Subscription is a cancellable handle returned by Store.Subscribe and by
// RunSpecification.Subscribe. Unsubscribe is idempotent: calling it more
// than once is a no-op after the first call, the same contract the
// teacher's OnUpdate cleanup closures follow (pkg/core/scope.go).
type Subscription struct {
	once sync.Once
	fn   func()
}

// newSubscription wraps an unsubscribe function so repeated Unsubscribe
// calls are safe.
func newSubscription(fn func()) Subscription {
	return Subscription{fn: fn}
}

// NewSubscription builds a Subscription from an arbitrary unsubscribe
// function, for external packages (signals, host applications) that
// implement their own RunSpecification sources and need to hand back a
// working Subscription from Subscribe.
func NewSubscription(fn func()) Subscription {
	return newSubscription(fn)
}

// Unsubscribe detaches the handler. Safe to call multiple times or
// concurrently; only the first call has effect.
func (s *Subscription) Unsubscribe() {
	if s.fn == nil {
		return
	}
	s.once.Do(s.fn)
}

// Compose returns a Subscription that unsubscribes every element of subs
// when unsubscribed itself, in the order given.
func Compose(subs ...Subscription) Subscription {
	return newSubscription(func() {
		for i := range subs {
			subs[i].Unsubscribe()
		}
	})
}

// subscriberList is a copy-on-write collection of event handlers, so
// dispatch can iterate a stable snapshot while Subscribe/Unsubscribe run
// concurrently (spec.md §5: "copy-on-write list so iteration during
// dispatch is safe against concurrent subscribe/unsubscribe").
type subscriberList[T any] struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]T
}

func newSubscriberList[T any]() *subscriberList[T] {
	return &subscriberList[T]{subs: make(map[uint64]T)}
}

func (l *subscriberList[T]) add(handler T) Subscription {
	l.mu.Lock()
	id := l.next
	l.next++
	next := make(map[uint64]T, len(l.subs)+1)
	for k, v := range l.subs {
		next[k] = v
	}
	next[id] = handler
	l.subs = next
	l.mu.Unlock()

	return newSubscription(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; !ok {
			return
		}
		next := make(map[uint64]T, len(l.subs)-1)
		for k, v := range l.subs {
			if k != id {
				next[k] = v
			}
		}
		l.subs = next
	})
}

// snapshot returns a stable slice of the current handlers for dispatch.
func (l *subscriberList[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, 0, len(l.subs))
	for _, v := range l.subs {
		out = append(out, v)
	}
	return out
}

func (l *subscriberList[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
