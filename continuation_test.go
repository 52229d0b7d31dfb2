package opruntime

import "testing"

func TestContinuationYieldThenReturn(t *testing.T) {
	var yields []int
	var final int
	var finalReason UpdateReason

	c := newContinuation(func(v int, reason UpdateReason) {
		if reason == ReasonYielded {
			yields = append(yields, v)
		} else {
			final = v
			finalReason = reason
		}
	}, func(error) {
		t.Fatal("unexpected error callback")
	})

	c.Yield(1)
	c.Yield(2)
	c.Return(3)

	if len(yields) != 2 || yields[0] != 1 || yields[1] != 2 {
		t.Fatalf("expected yields [1 2], got %v", yields)
	}
	if final != 3 || finalReason != ReasonFinalReturned {
		t.Fatalf("expected final 3 with ReasonFinalReturned, got %d %v", final, finalReason)
	}
}

func TestContinuationNoOpAfterTermination(t *testing.T) {
	calls := 0
	c := newContinuation(func(int, UpdateReason) {
		calls++
	}, func(error) {
		calls++
	})

	c.Return(1)
	c.Return(2)
	c.Error(errBoom)

	if calls != 1 {
		t.Fatalf("expected exactly 1 delivered call, got %d", calls)
	}
	if !c.Terminated() {
		t.Fatalf("expected Continuation to report terminated")
	}
}

var errBoom = &RunError{Kind: ErrorKindRun}
