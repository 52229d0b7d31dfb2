package opruntime

import (
	"context"
	"testing"
)

func TestStoreRunPublishesValue(t *testing.T) {
	op := NewOperation(NewPath("store-test"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(5)
	}))
	store := NewStore[int](op.Path(), op, Background())

	var received int
	sub := store.Subscribe(func(v int, reason UpdateReason) {
		received = v
	})
	defer sub.Unsubscribe()

	v, err := store.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 5 || received != 5 {
		t.Fatalf("expected 5, got Run=%d subscriber=%d", v, received)
	}
	if cached, ok := store.peek(); !ok || cached != 5 {
		t.Fatalf("expected peek to return cached 5, got %d %v", cached, ok)
	}
}

func TestStoreResetClearsValueAndStatus(t *testing.T) {
	op := NewOperation(NewPath("reset-test"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(1)
	}))
	store := NewStore[int](op.Path(), op, Background())

	if _, err := store.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.reset()

	if _, ok := store.peek(); ok {
		t.Fatalf("expected peek to report no cached value after reset")
	}
	if store.Status() != StatusIdle {
		t.Fatalf("expected StatusIdle after reset, got %v", store.Status())
	}
}

func TestControlsSetAndPeek(t *testing.T) {
	op := NewOperation(NewPath("controls-test"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(0)
	}))
	store := NewStore[int](op.Path(), op, Background())
	controls := store.Controls()

	controls.Set(99)
	v, ok := controls.Peek()
	if !ok || v != 99 {
		t.Fatalf("expected Peek to return 99, got %d %v", v, ok)
	}
	if !controls.IsCached() {
		t.Fatalf("expected IsCached true after Set")
	}
}
