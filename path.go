package opruntime

import (
	"fmt"
)

// Path is an ordered sequence of hashable, comparable tokens that
// identifies an Operation within a Client. Two Paths are equal iff their
// tokens are equal pairwise; Paths are value types and safe to use as map
// keys once converted to their comparable key form.
type Path struct {
	tokens []any
}

// NewPath constructs a Path from a literal sequence of tokens. Tokens must
// be comparable (the underlying type must support ==) or Key will panic
// when the Path is later used as a map key.
func NewPath(tokens ...any) Path {
	cp := make([]any, len(tokens))
	copy(cp, tokens)
	return Path{tokens: cp}
}

// Len returns the number of tokens in the path.
func (p Path) Len() int {
	return len(p.tokens)
}

// Token returns the token at index i.
func (p Path) Token(i int) any {
	return p.tokens[i]
}

// Tokens returns a copy of the underlying token slice.
func (p Path) Tokens() []any {
	cp := make([]any, len(p.tokens))
	copy(cp, p.tokens)
	return cp
}

// Append returns a new Path with additional tokens appended.
func (p Path) Append(tokens ...any) Path {
	cp := make([]any, 0, len(p.tokens)+len(tokens))
	cp = append(cp, p.tokens...)
	cp = append(cp, tokens...)
	return Path{tokens: cp}
}

// Equal reports structural equality between two paths.
func (p Path) Equal(other Path) bool {
	if len(p.tokens) != len(other.tokens) {
		return false
	}
	for i := range p.tokens {
		if p.tokens[i] != other.tokens[i] {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether p is a prefix of other: len(p) <= len(other)
// and every token matches pairwise.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p.tokens) > len(other.tokens) {
		return false
	}
	for i := range p.tokens {
		if p.tokens[i] != other.tokens[i] {
			return false
		}
	}
	return true
}

// Key returns a comparable representation of the Path suitable for use as
// a map key. Tokens that are not comparable (slices, maps, funcs) cause a
// panic at the call site, the same failure mode as using them directly as
// a Go map key.
func (p Path) Key() pathKey {
	b := getBuilder()
	defer putBuilder(b)
	for i, t := range p.tokens {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		fmt.Fprintf(b, "%T:%v", t, t)
	}
	return pathKey(b.String())
}

// pathKey is the hashable form of a Path, derived from its tokens'
// dynamic type and value. Two distinct Paths with equal tokens always
// produce the same pathKey.
type pathKey string

func (p Path) String() string {
	b := getBuilder()
	defer putBuilder(b)
	for i, t := range p.tokens {
		if i > 0 {
			b.WriteByte('/')
		}
		fmt.Fprintf(b, "%v", t)
	}
	return b.String()
}
