package opruntime

import (
	"context"
	"testing"
)

func TestTaskAwaitsDependencies(t *testing.T) {
	depOp := NewOperation(NewPath("task-test", "dep"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(7)
	}))
	dep := NewStore[int](depOp.Path(), depOp, Background())

	var seen int
	mainOp := NewOperation(NewPath("task-test", "main"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		v, _ := dep.peek()
		seen = v
		c.Return(v + 1)
	}))
	main := NewStore[int](mainOp.Path(), mainOp, Background(), dep.Controls())

	v, err := main.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != 7 || v != 8 {
		t.Fatalf("expected dependency to run before main (seen=7,v=8), got seen=%d v=%d", seen, v)
	}
	if !dep.isCached() {
		t.Fatalf("expected dependency to have run and cached its value")
	}
}

func TestTaskDependencyFailurePropagates(t *testing.T) {
	depOp := NewOperation(NewPath("task-test", "failing-dep"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Error(ErrCancelled)
	}))
	dep := NewStore[int](depOp.Path(), depOp, Background())

	mainOp := NewOperation(NewPath("task-test", "main-after-failing-dep"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(1)
	}))
	main := NewStore[int](mainOp.Path(), mainOp, Background(), dep.Controls())

	_, err := main.Run(context.Background())
	if err == nil {
		t.Fatalf("expected dependency failure to propagate")
	}
	re, ok := err.(*RunError)
	if !ok || re.Kind != ErrorKindDependency {
		t.Fatalf("expected ErrorKindDependency, got %#v", err)
	}
}

func TestTaskDependencyCycleRejected(t *testing.T) {
	pathA := NewPath("task-test", "cycle-a")
	pathB := NewPath("task-test", "cycle-b")

	opB := NewOperation(pathB, OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(1)
	}))
	storeB := NewStore[int](pathB, opB, Background())

	opA := NewOperation(pathA, OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(1)
	}))
	storeA := NewStore[int](pathA, opA, Background(), storeB.Controls())

	// Rebuild B's Task so it declares a dependency back on A, closing a
	// cycle; the second edge (B -> A) must be rejected since A already
	// depends on B.
	cyclicTask := NewTask[int](opB, TaskConfig{Name: pathB.String(), Path: pathB, DependsOn: []ErasedStore{storeA.Controls()}})
	if len(cyclicTask.depErrors) == 0 {
		t.Fatalf("expected cyclic dependency to be rejected with a recorded error")
	}
	if cyclicTask.depErrors[0].Kind != ErrorKindCycleDetected {
		t.Fatalf("expected ErrorKindCycleDetected, got %v", cyclicTask.depErrors[0].Kind)
	}

	_, err := cyclicTask.Run(context.Background(), Background(), nil)
	if err == nil {
		t.Fatalf("expected Run to surface the cycle error")
	}
	if re, ok := err.(*RunError); !ok || re.Kind != ErrorKindCycleDetected {
		t.Fatalf("expected ErrorKindCycleDetected from Run, got %#v", err)
	}
}

func TestStoreForwardsYieldsToSubscribers(t *testing.T) {
	op := NewOperation(NewPath("task-test", "yielding"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Yield(1)
		c.Yield(2)
		c.Return(3)
	}))
	store := NewStore[int](op.Path(), op, Background())

	var seen []int
	var reasons []UpdateReason
	sub := store.Subscribe(func(v int, reason UpdateReason) {
		seen = append(seen, v)
		reasons = append(reasons, reason)
	})
	defer sub.Unsubscribe()

	v, err := store.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 3 {
		t.Fatalf("expected final value 3, got %d", v)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Fatalf("expected subscribers to see [1 2 3], got %v", seen)
	}
	if reasons[0] != ReasonYielded || reasons[1] != ReasonYielded || reasons[2] != ReasonFinalReturned {
		t.Fatalf("expected reasons [Yielded Yielded FinalReturned], got %v", reasons)
	}
}

func TestMapTaskTransformsCompletedValue(t *testing.T) {
	op := NewOperation(NewPath("task-test", "mapped"), OperationFunc[int](func(ctx Context, c Continuation[int]) {
		c.Return(4)
	}))
	base := NewTask[int](op, TaskConfig{Name: "mapped", Path: op.Path()})
	mapped := MapTask(base, func(v int) string {
		return "value"
	})

	v, err := mapped.Run(context.Background(), Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "value" {
		t.Fatalf("expected mapped value %q, got %q", "value", v)
	}
}
