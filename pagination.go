package opruntime

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// PaginatedEngine coordinates fetches for a paginated Operation: it runs a
// single per-page Operation[Page[T]] with the requested FetchType bound
// into Context, and folds the result into a PaginatedState[T]. Concurrency
// across the four fetch directions is gated by bucket, not by one global
// flag: Initial and All are each exclusive with every bucket including
// their own, since both replace (or seed) the whole page list; Next and
// Previous each serialize with themselves, to keep their cursor math
// consistent, but may proceed concurrently with each other as long as no
// Initial or All fetch is active.
type PaginatedEngine[T any] struct {
	op    Operation[Page[T]]
	state *PaginatedState[T]

	mu   sync.Mutex
	cond *sync.Cond
}

// NewPaginatedEngine builds an engine around a per-page Operation. The
// run function should branch on Get(ctx, PaginatedFetchTypeKey) to
// decide which cursor to fetch from, reading the cursor via Cursor(ctx)
// for Next/Previous fetches, and report whether another page exists in
// either direction via Page.HasNext/HasPrevious on its returned value.
func NewPaginatedEngine[T any](op Operation[Page[T]]) *PaginatedEngine[T] {
	e := &PaginatedEngine[T]{op: op, state: newPaginatedState[T]()}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *PaginatedEngine[T]) State() *PaginatedState[T] { return e.state }

var errNoInitialFetch = fmt.Errorf("opruntime: initial fetch must complete before next/previous")

// Initial fetches the first page, replacing any existing pages.
func (e *PaginatedEngine[T]) Initial(stdCtx context.Context, base Context) error {
	return e.run(stdCtx, base, bucketInitial, FetchTypeInitial, func(page Page[T]) {
		e.state.setInitial(page, page.HasNext, page.HasPrevious)
	})
}

// Next fetches the page following the last page in the list.
func (e *PaginatedEngine[T]) Next(stdCtx context.Context, base Context) error {
	e.mu.Lock()
	if len(e.state.pages) == 0 {
		e.mu.Unlock()
		return errNoInitialFetch
	}
	cursor := e.state.pages[len(e.state.pages)-1].Cursor
	e.mu.Unlock()

	base = With(base, paginatedCursorKey, cursor)
	return e.run(stdCtx, base, bucketNext, FetchTypeNext, func(page Page[T]) {
		e.state.appendNext(page, page.HasNext)
	})
}

// Previous fetches the page preceding the first page in the list.
func (e *PaginatedEngine[T]) Previous(stdCtx context.Context, base Context) error {
	e.mu.Lock()
	if len(e.state.pages) == 0 {
		e.mu.Unlock()
		return errNoInitialFetch
	}
	cursor := e.state.pages[0].Cursor
	e.mu.Unlock()

	base = With(base, paginatedCursorKey, cursor)
	return e.run(stdCtx, base, bucketPrevious, FetchTypePrevious, func(page Page[T]) {
		e.state.prependPrevious(page, page.HasPrevious)
	})
}

// All fetches every page the backend has starting from scratch and
// replaces the engine's state with the result. Run functions supporting
// FetchTypeAll should return every item concatenated into one Page.
func (e *PaginatedEngine[T]) All(stdCtx context.Context, base Context) error {
	return e.run(stdCtx, base, bucketAll, FetchTypeAll, func(page Page[T]) {
		e.state.setAll([]Page[T]{page})
	})
}

// Reset clears the engine's state, including its active-task buckets, and
// wakes any fetch blocked waiting on a bucket so it re-checks (and
// proceeds) against the cleared state.
func (e *PaginatedEngine[T]) Reset() {
	e.mu.Lock()
	e.state.reset()
	e.mu.Unlock()
	e.cond.Broadcast()
}

// canAcquireLocked reports whether a fetch in bucket may proceed given the
// engine's currently active buckets. Must be called with e.mu held.
func (e *PaginatedEngine[T]) canAcquireLocked(bucket fetchBucket) bool {
	switch bucket {
	case bucketInitial, bucketAll:
		for _, active := range e.state.active {
			if len(active) > 0 {
				return false
			}
		}
		return true
	case bucketNext:
		return len(e.state.active[bucketInitial]) == 0 &&
			len(e.state.active[bucketAll]) == 0 &&
			len(e.state.active[bucketNext]) == 0
	case bucketPrevious:
		return len(e.state.active[bucketInitial]) == 0 &&
			len(e.state.active[bucketAll]) == 0 &&
			len(e.state.active[bucketPrevious]) == 0
	default:
		return true
	}
}

// acquire blocks until bucket may run, then registers a fresh task id in
// it and returns that id for the matching release call.
func (e *PaginatedEngine[T]) acquire(bucket fetchBucket) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	for !e.canAcquireLocked(bucket) {
		e.cond.Wait()
	}
	id := nextTaskID()
	e.state.active[bucket][id] = struct{}{}
	return id
}

func (e *PaginatedEngine[T]) release(bucket fetchBucket, id uint64) {
	e.mu.Lock()
	delete(e.state.active[bucket], id)
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *PaginatedEngine[T]) run(stdCtx context.Context, base Context, bucket fetchBucket, kind FetchType, apply func(Page[T])) error {
	id := e.acquire(bucket)
	defer e.release(bucket, id)

	runCtx := WithStdContext(base, stdCtx)
	runCtx = With(runCtx, PaginatedFetchTypeKey, kind)

	fn := e.op.build()
	var page Page[T]
	var runErr error
	done := make(chan struct{})
	c := newContinuation(func(v Page[T], reason UpdateReason) {
		if reason == ReasonFinalReturned {
			page = v
			close(done)
		}
	}, func(err error) {
		runErr = err
		close(done)
	})
	fn(runCtx, c)
	<-done

	if runErr != nil {
		return runErr
	}
	if page.ID == "" {
		page.ID = uuid.NewString()
	}

	e.mu.Lock()
	apply(page)
	e.mu.Unlock()
	return nil
}

// paginatedCursorKey carries the cursor a Next/Previous fetch should
// continue from. Declared here rather than context.go since it is
// specific to the paginated paradigm.
var paginatedCursorKey = NewKey[any]("paginated.cursor", nil)

// Cursor returns the cursor bound for a Next/Previous fetch, for use
// inside a per-page run function.
func Cursor(ctx Context) any {
	return Get(ctx, paginatedCursorKey)
}
