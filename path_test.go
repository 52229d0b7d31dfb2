package opruntime

import "testing"

func TestPathEqual(t *testing.T) {
	a := NewPath("user", 1)
	b := NewPath("user", 1)
	c := NewPath("user", 2)

	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}
}

func TestPathIsPrefixOf(t *testing.T) {
	prefix := NewPath("user")
	full := NewPath("user", 1, "posts")

	if !prefix.IsPrefixOf(full) {
		t.Errorf("expected %v to be a prefix of %v", prefix, full)
	}
	if full.IsPrefixOf(prefix) {
		t.Errorf("did not expect %v to be a prefix of %v", full, prefix)
	}
}

func TestPathKeyStability(t *testing.T) {
	a := NewPath("user", 1, "posts")
	b := NewPath("user", 1, "posts")

	if a.Key() != b.Key() {
		t.Errorf("expected equal paths to produce equal keys, got %q and %q", a.Key(), b.Key())
	}

	c := NewPath("user", "1", "posts")
	if a.Key() == c.Key() {
		t.Errorf("expected differently typed tokens to produce distinct keys")
	}
}

func TestPathAppend(t *testing.T) {
	base := NewPath("user", 1)
	child := base.Append("posts")

	if child.Len() != 3 {
		t.Fatalf("expected length 3, got %d", child.Len())
	}
	if base.Len() != 2 {
		t.Errorf("expected Append to not mutate the receiver, got length %d", base.Len())
	}
}
