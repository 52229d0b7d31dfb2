package opruntime

import (
	"context"
	"testing"
)

func TestMutationStoreHistoryBounded(t *testing.T) {
	op := NewOperation(NewPath("like"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(1)
	}))
	store := NewMutationStore[int](op.Path(), op, Background(), 3)

	for i := 0; i < 10; i++ {
		if _, err := store.Invoke(context.Background()); err != nil {
			t.Fatalf("invoke %d failed: %v", i, err)
		}
	}

	history := store.State().History()
	if len(history) != 3 {
		t.Fatalf("expected history bounded to 3, got %d", len(history))
	}
}

func TestMutationStoreRecordsErrors(t *testing.T) {
	op := NewOperation(NewPath("fail-mutation"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Error(errBoom)
	}))
	store := NewMutationStore[int](op.Path(), op, Background(), 5)

	if _, err := store.Invoke(context.Background()); err == nil {
		t.Fatalf("expected Invoke to return the run's error")
	}

	latest, ok := store.State().Latest()
	if !ok {
		t.Fatalf("expected a recorded entry")
	}
	if latest.Err == nil {
		t.Fatalf("expected recorded entry to carry the error")
	}
}
