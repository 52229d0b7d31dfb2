package opruntime

import (
	"context"
	"sync"
)

// ErrorMode controls how RunAll/RunMany treat individual failures in a
// fanned-out batch of runs. Grounded on the teacher's ParallelExecutor
// ErrorMode (flow.go), which offers the same fail-fast-vs-collect choice
// for a batch of concurrently executed flows.
type ErrorMode int

const (
	// FailFast cancels the context of every still-running Store as soon
	// as one fails; RunAll still waits for every run and returns every
	// result, the cancelled ones carrying their cancellation error.
	FailFast ErrorMode = iota
	// CollectErrors lets every Store run to completion and returns every
	// result, including failures, rather than aborting early.
	CollectErrors
)

// BatchResult pairs a Store's Path with the outcome of its run, for
// RunAll/RunMany callers that want to know which run produced which
// error.
type BatchResult[T any] struct {
	Path  Path
	Value T
	Err   error
}

// RunAll runs every given Store concurrently and waits for all of them,
// honoring mode's fail-fast-or-collect policy. Results are returned in
// the same order as stores, regardless of completion order.
func RunAll[T any](stdCtx context.Context, stores []*Store[T], mode ErrorMode) []BatchResult[T] {
	results := make([]BatchResult[T], len(stores))

	runCtx, cancel := context.WithCancel(stdCtx)
	defer cancel()

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i, s := range stores {
		wg.Add(1)
		go func(i int, s *Store[T]) {
			defer wg.Done()
			v, err := s.Run(runCtx)
			results[i] = BatchResult[T]{Path: s.Path(), Value: v, Err: err}
			if err != nil && mode == FailFast {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i, s)
	}
	wg.Wait()
	_ = firstErr
	return results
}

// RunMany generalizes RunAll to a heterogeneous, pattern-matched batch:
// every ErasedStore registered under prefix in the given Client is
// invalidated concurrently (see ErasedStore.Invalidate); no Store is
// run. Unlike
// RunAll, RunMany cannot return typed values since ErasedStore erases
// its element type; it is the fanout helper for "refresh every Store
// under this prefix" rather than "run these specific typed Stores and
// collect their values."
func RunMany(stdCtx context.Context, c *Client, prefix Path) []BatchResult[struct{}] {
	stores := c.Stores(prefix)
	results := make([]BatchResult[struct{}], len(stores))

	var wg sync.WaitGroup
	for i, s := range stores {
		wg.Add(1)
		go func(i int, s ErasedStore) {
			defer wg.Done()
			s.Invalidate()
			results[i] = BatchResult[struct{}]{Path: s.Path()}
		}(i, s)
	}
	wg.Wait()
	return results
}
