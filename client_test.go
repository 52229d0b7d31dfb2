package opruntime

import (
	"context"
	"testing"
)

func TestClientGetStoreIsSingleton(t *testing.T) {
	client := NewClient()
	op := NewOperation(NewPath("user", 1), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(1)
	}))

	a := GetStore(client, op.Path(), op)
	b := GetStore(client, op.Path(), op)

	if a != b {
		t.Fatalf("expected GetStore to return the same instance for an equal Path")
	}
}

func TestClientPathsByPrefix(t *testing.T) {
	client := NewClient()
	mk := func(tokens ...any) Path { return NewPath(tokens...) }

	op1 := NewOperation(mk("user", 1), OperationFunc[int](func(Context, Continuation[int]) {}))
	op2 := NewOperation(mk("user", 2), OperationFunc[int](func(Context, Continuation[int]) {}))
	op3 := NewOperation(mk("org", 1), OperationFunc[int](func(Context, Continuation[int]) {}))

	GetStore(client, op1.Path(), op1)
	GetStore(client, op2.Path(), op2)
	GetStore(client, op3.Path(), op3)

	paths := client.Paths(mk("user"))
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths under prefix \"user\", got %d", len(paths))
	}
}

func TestRunManyInvalidatesPrefix(t *testing.T) {
	client := NewClient()
	mk := func(tokens ...any) Path { return NewPath(tokens...) }

	op1 := NewOperation(mk("feed", 1), OperationFunc[int](func(ctx Context, c Continuation[int]) { c.Return(1) }))
	op2 := NewOperation(mk("feed", 2), OperationFunc[int](func(ctx Context, c Continuation[int]) { c.Return(2) }))

	s1 := GetStore(client, op1.Path(), op1)
	s2 := GetStore(client, op2.Path(), op2)

	s1.Run(context.Background())
	s2.Run(context.Background())

	results := RunMany(context.Background(), client, mk("feed"))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if s1.Status() != StatusIdle || s2.Status() != StatusIdle {
		t.Fatalf("expected both stores invalidated back to idle")
	}
}
