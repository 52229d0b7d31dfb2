package opruntime

import "testing"

func TestContextGetDefault(t *testing.T) {
	key := NewKey[int]("count", 42)
	ctx := Background()

	if got := Get(ctx, key); got != 42 {
		t.Errorf("expected default 42, got %d", got)
	}
}

func TestContextWithIsImmutable(t *testing.T) {
	key := NewKey[int]("count", 0)
	parent := Background()
	child := With(parent, key, 7)

	if got := Get(parent, key); got != 0 {
		t.Errorf("expected parent to be unaffected by With, got %d", got)
	}
	if got := Get(child, key); got != 7 {
		t.Errorf("expected child to see 7, got %d", got)
	}
}

func TestContextLookup(t *testing.T) {
	key := NewKey[string]("name", "")
	ctx := Background()

	if _, ok := Lookup(ctx, key); ok {
		t.Errorf("expected Lookup to report unset")
	}

	ctx = With(ctx, key, "ada")
	v, ok := Lookup(ctx, key)
	if !ok || v != "ada" {
		t.Errorf("expected (ada, true), got (%q, %v)", v, ok)
	}
}
