package opruntime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store is the runtime instance backing a single-value Operation: it
// owns the current SingleState, the Task that performs runs, and the
// subscriber list notified on every update. It keeps no list of
// Controllers: handles bound via WithController are visible only in the
// Context of the runs they wrap. A Store is
// created once per Path by a Client and reused for the Client's
// lifetime, the same one-instance-per-identity model as the teacher's
// Scope registry keyed by Executor identity (scope.go).
type Store[T any] struct {
	id   string
	path Path
	base Context

	mu    sync.RWMutex
	state *SingleState[T]
	task  *Task[T]

	subscribers *subscriberList[func(T, UpdateReason)]
	errorSubs   *subscriberList[func(error)]

	cancel context.CancelFunc
}

// NewStore creates a Store for op at path, using base as the Context
// every run starts from (well-known keys like Clock/Logger are
// typically bound here once by the owning Client). deps, if given, must
// each produce a value before this Store's own run function executes;
// see TaskConfig.DependsOn.
func NewStore[T any](path Path, op Operation[T], base Context, deps ...ErasedStore) *Store[T] {
	base = With(base, CurrentPathKey, path)
	return &Store[T]{
		id:          uuid.NewString(),
		path:        path,
		base:        base,
		state:       newSingleState[T](),
		task:        NewTask(op, TaskConfig{Name: path.String(), Path: path, DependsOn: deps}),
		subscribers: newSubscriberList[func(T, UpdateReason)](),
		errorSubs:   newSubscriberList[func(error)](),
	}
}

func (s *Store[T]) Path() Path { return s.path }

// Controls returns the imperative handle for this Store, for wiring into
// the WithController modifier or for direct use by a Client caller.
func (s *Store[T]) Controls() Controls[T] { return newControls(s) }

// Run executes the Store's Operation, awaiting caller cancellation via
// stdCtx and publishing every yielded and final value to subscribers.
// Concurrent callers while a run is already in flight join that run
// rather than starting a second one (Task.Run's memoization).
func (s *Store[T]) Run(stdCtx context.Context) (T, error) {
	runCtx, cancel := context.WithCancel(stdCtx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.mu.Lock()
	s.state.markRunning()
	s.mu.Unlock()

	exts := Get(s.base, ExtensionsKey)
	exts.runStart(s.path)

	clock := Get(s.base, ClockKey)
	started := clock.Now()
	v, err := s.runTracked(runCtx)

	exts.runEnd(s.path, err)

	now := clock.Now()
	s.mu.Lock()
	if err != nil {
		s.state.markFailed(now, err)
	} else {
		s.state.markSucceeded(now)
		s.state.update(v)
	}
	status := s.state.Status()
	s.mu.Unlock()

	if tracer := Get(s.base, TracerKey); tracer != nil {
		tracer.Record(s.path, status, started, now.Sub(started), err)
	}

	if err != nil {
		for _, h := range s.errorSubs.snapshot() {
			h(err)
		}
		return v, err
	}
	for _, h := range s.subscribers.snapshot() {
		h(v, ReasonFinalReturned)
	}
	return v, nil
}

// runTracked wraps Task.Run so intermediate Yields are also published to
// subscribers, not just the final value: Task.Run itself only tracks the
// terminal outcome, so the onYield callback here folds each yielded
// value into SingleState under the Store's own lock and mirrors it out
// to the subscriber list as it happens, the same publication path the
// terminal value takes in Run.
func (s *Store[T]) runTracked(runCtx context.Context) (T, error) {
	return s.task.Run(runCtx, s.base, func(v T) {
		s.mu.Lock()
		s.state.update(v)
		s.mu.Unlock()
		for _, h := range s.subscribers.snapshot() {
			h(v, ReasonYielded)
		}
	})
}

// Peek returns the last published value without triggering a run.
func (s *Store[T]) peek() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Value()
}

func (s *Store[T]) isCached() bool {
	_, ok := s.peek()
	return ok
}

// runIfNeeded runs the Store only if it has no cached value yet, and
// blocks until that run (if any) completes; it is what a dependent
// Task's awaitDependencies calls through ErasedStore.RunIfNeeded.
func (s *Store[T]) runIfNeeded(ctx context.Context) error {
	if s.isCached() {
		return nil
	}
	_, err := s.Run(ctx)
	return err
}

// setCached force-sets the published value without running the
// Operation, then notifies subscribers as though it had been yielded.
func (s *Store[T]) setCached(value T) {
	s.mu.Lock()
	s.state.update(value)
	now := Get(s.base, ClockKey).Now()
	s.state.markSucceeded(now)
	s.mu.Unlock()
	for _, h := range s.subscribers.snapshot() {
		h(value, ReasonYielded)
	}
}

// invalidate sets the Store's status back to StatusIdle. It does not
// clear the currently cached value and does not start a run; runIfNeeded
// still sees the cached value and skips.
func (s *Store[T]) invalidate() {
	s.mu.Lock()
	s.state.status = StatusIdle
	s.mu.Unlock()
}

// reset clears the Store back to its zero state and cancels any
// in-flight run.
func (s *Store[T]) reset() {
	s.cancelActive()
	s.mu.Lock()
	s.state.reset()
	s.mu.Unlock()
}

func (s *Store[T]) cancelActive() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.task.Cancel()
}

// Subscribe registers a handler invoked on every published value
// (yielded or final). The returned Subscription unregisters it.
func (s *Store[T]) Subscribe(handler func(T, UpdateReason)) Subscription {
	return s.subscribers.add(handler)
}

// SubscribeError registers a handler invoked whenever a run terminates
// with an error.
func (s *Store[T]) SubscribeError(handler func(error)) Subscription {
	return s.errorSubs.add(handler)
}

// Status reports the Store's current run status.
func (s *Store[T]) Status() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Status()
}
