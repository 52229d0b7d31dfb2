package opruntime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var attempts int32
	run := OperationFunc[int](func(ctx Context, c Continuation[int]) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			c.Error(errors.New("transient"))
			return
		}
		c.Return(int(n))
	})

	op := NewOperation(NewPath("retry-test"), run).WithModifiers(Retry[int](5))
	ctx := Background()
	ctx = With(ctx, DelayerKey, NoDelay{})
	ctx = WithStdContext(ctx, context.Background())

	var result int
	var resultErr error
	done := make(chan struct{})
	fn := op.build()
	fn(ctx, newContinuation(func(v int, reason UpdateReason) {
		if reason == ReasonFinalReturned {
			result = v
			close(done)
		}
	}, func(err error) {
		resultErr = err
		close(done)
	}))
	<-done

	if resultErr != nil {
		t.Fatalf("expected success, got error %v", resultErr)
	}
	if result != 3 {
		t.Fatalf("expected result 3, got %d", result)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryGivesUpAtLimit(t *testing.T) {
	run := OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Error(errors.New("always fails"))
	})

	op := NewOperation(NewPath("retry-limit"), run).WithModifiers(Retry[int](2))
	ctx := Background()
	ctx = With(ctx, DelayerKey, NoDelay{})
	ctx = WithStdContext(ctx, context.Background())

	var resultErr error
	done := make(chan struct{})
	fn := op.build()
	fn(ctx, newContinuation(func(int, UpdateReason) {
		close(done)
	}, func(err error) {
		resultErr = err
		close(done)
	}))
	<-done

	if resultErr == nil {
		t.Fatal("expected a final error once retry limit is exhausted")
	}
}

func TestDeduplicatedCollapsesConcurrentCalls(t *testing.T) {
	var executions int32
	run := OperationFunc[int](func(ctx Context, c Continuation[int]) {
		atomic.AddInt32(&executions, 1)
		time.Sleep(20 * time.Millisecond)
		c.Return(7)
	})

	op := NewOperation(NewPath("dedup-test"), run).WithModifiers(
		Deduplicated[int](func(Context) string { return "shared-key" }),
	)
	fn := op.build()
	ctx := Background()

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			done := make(chan struct{})
			fn(ctx, newContinuation(func(v int, reason UpdateReason) {
				if reason == ReasonFinalReturned {
					results[i] = v
					close(done)
				}
			}, func(error) {
				close(done)
			}))
			<-done
		}(i)
	}
	wg.Wait()

	if executions != 1 {
		t.Fatalf("expected exactly 1 underlying execution, got %d", executions)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("caller %d expected result 7, got %d", i, v)
		}
	}
}
