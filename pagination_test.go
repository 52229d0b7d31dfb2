package opruntime

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPaginatedEngineForward(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	const size = 2

	fetch := OperationFunc[Page[int]](func(ctx Context, c Continuation[Page[int]]) {
		offset := 0
		if cur := Cursor(ctx); cur != nil {
			offset = cur.(int)
		}
		end := offset + size
		if end > len(items) {
			end = len(items)
		}
		c.Return(Page[int]{
			Items:   items[offset:end],
			Cursor:  end,
			HasNext: end < len(items),
		})
	})

	op := NewOperation(NewPath("numbers"), fetch)
	store := NewPaginatedStore[int](op.Path(), op, Background())

	if err := store.Initial(context.Background()); err != nil {
		t.Fatalf("initial fetch failed: %v", err)
	}
	for store.State().HasNext() {
		if err := store.Next(context.Background()); err != nil {
			t.Fatalf("next fetch failed: %v", err)
		}
	}

	flat := store.State().Flatten()
	if len(flat) != len(items) {
		t.Fatalf("expected %d items, got %d: %v", len(items), len(flat), flat)
	}
	for i, v := range flat {
		if v != items[i] {
			t.Errorf("index %d: expected %d, got %d", i, items[i], v)
		}
	}
}

func TestPaginatedEngineRejectsNextBeforeInitial(t *testing.T) {
	fetch := OperationFunc[Page[int]](func(ctx Context, c Continuation[Page[int]]) {
		c.Return(Page[int]{})
	})
	op := NewOperation(NewPath("no-initial"), fetch)
	store := NewPaginatedStore[int](op.Path(), op, Background())

	if err := store.Next(context.Background()); err == nil {
		t.Fatalf("expected Next before Initial to error")
	}
}

// TestPaginatedEngineNextAndPreviousRunConcurrently exercises the asymmetric
// bucket rule: a Next fetch and a Previous fetch may proceed at the same
// time, neither waiting on the other.
func TestPaginatedEngineNextAndPreviousRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	inFlight := map[FetchType]bool{}
	bothObserved := make(chan struct{}, 1)

	fetch := OperationFunc[Page[int]](func(ctx Context, c Continuation[Page[int]]) {
		kind := Get(ctx, PaginatedFetchTypeKey)
		if kind == FetchTypeNext || kind == FetchTypePrevious {
			mu.Lock()
			inFlight[kind] = true
			both := inFlight[FetchTypeNext] && inFlight[FetchTypePrevious]
			mu.Unlock()
			if both {
				select {
				case bothObserved <- struct{}{}:
				default:
				}
			}
			<-release
		}
		c.Return(Page[int]{Items: []int{1}})
	})

	op := NewOperation(NewPath("concurrent-pagination"), fetch)
	store := NewPaginatedStore[int](op.Path(), op, Background())
	if err := store.Initial(context.Background()); err != nil {
		t.Fatalf("initial fetch failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = store.Next(context.Background())
	}()
	go func() {
		defer wg.Done()
		_ = store.Previous(context.Background())
	}()

	select {
	case <-bothObserved:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Next and Previous to run concurrently, but they serialized")
	}
	close(release)
	wg.Wait()
}

// TestPaginatedEngineAllWaitsForNext confirms All is exclusive with every
// other bucket: it must not start while a Next fetch is still in flight.
func TestPaginatedEngineAllWaitsForNext(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var allStarted bool
	nextRunning := make(chan struct{})

	fetch := OperationFunc[Page[int]](func(ctx Context, c Continuation[Page[int]]) {
		kind := Get(ctx, PaginatedFetchTypeKey)
		switch kind {
		case FetchTypeNext:
			close(nextRunning)
			<-release
		case FetchTypeAll:
			mu.Lock()
			allStarted = true
			mu.Unlock()
		}
		c.Return(Page[int]{Items: []int{1}})
	})

	op := NewOperation(NewPath("all-exclusive-pagination"), fetch)
	store := NewPaginatedStore[int](op.Path(), op, Background())
	if err := store.Initial(context.Background()); err != nil {
		t.Fatalf("initial fetch failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = store.Next(context.Background())
	}()

	<-nextRunning
	go func() {
		defer wg.Done()
		_ = store.All(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	startedWhileNextRunning := allStarted
	mu.Unlock()
	if startedWhileNextRunning {
		t.Fatalf("expected All to wait for Next to finish before starting")
	}
	close(release)
	wg.Wait()
}
