package opruntime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MutationStore is the runtime instance backing a mutation Operation: a
// run that performs a side effect and reports its history, rather than a
// cached value meant to be repeatedly re-read. Unlike Store, a
// MutationStore's Invoke always starts a new run; there is no implicit
// staleness or automatic re-running, matching the mutation paradigm's
// "fires once per call, never on its own" contract.
type MutationStore[T any] struct {
	id   string
	path Path
	base Context

	mu    sync.Mutex
	op    Operation[T]
	state *MutationState[T]

	subscribers *subscriberList[func(MutationEntry[T])]
}

// NewMutationStore creates a MutationStore for op at path. historyLimit
// bounds the number of past attempts retained (see MutationState).
func NewMutationStore[T any](path Path, op Operation[T], base Context, historyLimit int) *MutationStore[T] {
	base = With(base, CurrentPathKey, path)
	return &MutationStore[T]{
		id:          uuid.NewString(),
		path:        path,
		base:        base,
		op:          op,
		state:       newMutationState[T](historyLimit),
		subscribers: newSubscriberList[func(MutationEntry[T])](),
	}
}

func (s *MutationStore[T]) Path() Path { return s.path }

func (s *MutationStore[T]) State() *MutationState[T] { return s.state }

// Invoke performs one mutation run and records its outcome in the
// history. Each call is independent; concurrent Invoke calls run and
// record concurrently rather than being coalesced, unlike Store.Run's
// memoization, since each call typically represents a distinct user
// action (for example, two different comments being submitted).
func (s *MutationStore[T]) Invoke(stdCtx context.Context, args ...any) (T, error) {
	runCtx := WithStdContext(s.base, stdCtx)
	if len(args) > 0 {
		runCtx = With(runCtx, MutationArgsKey, args)
	}

	fn := s.op.build()
	var value T
	var runErr error
	done := make(chan struct{})
	c := newContinuation(func(v T, reason UpdateReason) {
		if reason == ReasonFinalReturned {
			value = v
			close(done)
		}
	}, func(err error) {
		runErr = err
		close(done)
	})
	fn(runCtx, c)
	<-done

	now := Get(s.base, ClockKey).Now()
	s.mu.Lock()
	s.state.record(value, runErr, now)
	entry, _ := s.state.Latest()
	s.mu.Unlock()

	for _, h := range s.subscribers.snapshot() {
		h(entry)
	}
	return value, runErr
}

// OnResult registers a handler invoked after each Invoke completes, with
// the MutationEntry it produced.
func (s *MutationStore[T]) OnResult(handler func(MutationEntry[T])) Subscription {
	return s.subscribers.add(handler)
}

func (s *MutationStore[T]) IsCached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.Latest()
	return ok
}

func (s *MutationStore[T]) Invalidate() {}

func (s *MutationStore[T]) Reset() {
	s.mu.Lock()
	s.state.reset()
	s.mu.Unlock()
}

func (s *MutationStore[T]) Cancel() {}

func (s *MutationStore[T]) OnChange(handler func()) Subscription {
	return s.subscribers.add(func(MutationEntry[T]) { handler() })
}

// RunIfNeeded is a no-op: a mutation has no passive value to produce on a
// dependent's behalf, only side effects triggered by explicit Invoke calls,
// so depending on a MutationStore never blocks waiting for one.
func (s *MutationStore[T]) RunIfNeeded(ctx context.Context) error { return nil }

// MutationArgsKey carries the arguments passed to Invoke, for run
// functions that need to read them generically; typed mutation
// Operations typically close over their arguments instead and can
// ignore this key.
var MutationArgsKey = NewKey[[]any]("mutation.args", nil)
