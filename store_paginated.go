package opruntime

import (
	"context"

	"github.com/google/uuid"
)

// PaginatedStore is the runtime instance backing a paginated Operation,
// analogous to Store but driving a PaginatedEngine instead of a single
// run, and exposing Initial/Next/Previous/All instead of a single Run.
type PaginatedStore[T any] struct {
	id   string
	path Path
	base Context

	engine *PaginatedEngine[T]

	subscribers *subscriberList[func()]
}

// NewPaginatedStore creates a PaginatedStore for a per-page Operation at
// path.
func NewPaginatedStore[T any](path Path, op Operation[Page[T]], base Context) *PaginatedStore[T] {
	base = With(base, CurrentPathKey, path)
	return &PaginatedStore[T]{
		id:          uuid.NewString(),
		path:        path,
		base:        base,
		engine:      NewPaginatedEngine[T](op),
		subscribers: newSubscriberList[func()](),
	}
}

func (s *PaginatedStore[T]) Path() Path { return s.path }

func (s *PaginatedStore[T]) State() *PaginatedState[T] { return s.engine.State() }

func (s *PaginatedStore[T]) Initial(stdCtx context.Context) error {
	err := s.engine.Initial(stdCtx, s.base)
	s.notify(err)
	return err
}

func (s *PaginatedStore[T]) Next(stdCtx context.Context) error {
	err := s.engine.Next(stdCtx, s.base)
	s.notify(err)
	return err
}

func (s *PaginatedStore[T]) Previous(stdCtx context.Context) error {
	err := s.engine.Previous(stdCtx, s.base)
	s.notify(err)
	return err
}

func (s *PaginatedStore[T]) All(stdCtx context.Context) error {
	err := s.engine.All(stdCtx, s.base)
	s.notify(err)
	return err
}

func (s *PaginatedStore[T]) notify(err error) {
	if err != nil {
		return
	}
	for _, h := range s.subscribers.snapshot() {
		h()
	}
}

func (s *PaginatedStore[T]) OnChange(handler func()) Subscription {
	return s.subscribers.add(func() { handler() })
}

func (s *PaginatedStore[T]) IsCached() bool {
	return len(s.engine.State().Pages()) > 0
}

func (s *PaginatedStore[T]) Invalidate() {
	s.engine.mu.Lock()
	s.engine.state.status = StatusIdle
	s.engine.mu.Unlock()
}

func (s *PaginatedStore[T]) Reset() {
	s.engine.Reset()
}

func (s *PaginatedStore[T]) Cancel() {
	// Per-fetch cancellation is driven by the stdCtx passed into each
	// fetch call; PaginatedStore keeps no independent cancel handle, so
	// Cancel does nothing, even while Next and Previous fetches are in
	// flight together.
}

// RunIfNeeded fetches the first page only if none has been fetched yet,
// so a paginated Store can itself be named in another Task's DependsOn.
func (s *PaginatedStore[T]) RunIfNeeded(ctx context.Context) error {
	if s.IsCached() {
		return nil
	}
	return s.Initial(ctx)
}
