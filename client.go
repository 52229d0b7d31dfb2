package opruntime

import "sync"

// Client is the top-level registry mapping Path to the Store backing it.
// It is the entry point host applications hold: declare an Operation,
// fetch (or lazily create) its Store through the Client, and query
// across many Stores by path prefix. Queries do not filter by the
// Store's element type or kind.
// Grounded on the teacher's Scope (scope.go), which performs the same
// identity-keyed lazy-instantiation role for Executors; Client
// generalizes that registry from Executor identity to Path identity so
// two Operations with unrelated Go types can still share one namespace.
type Client struct {
	base Context

	mu       sync.RWMutex
	entries  map[pathKey]clientEntry
	ordered  []pathKey
}

type clientEntry struct {
	path  Path
	store ErasedStore
	typed any
}

// NewClient creates a Client whose Stores will be built using the
// Context assembled by opts as their starting Context (bind Logger,
// Clock, and other well-known keys here once for every Store the Client
// manages).
func NewClient(opts ...ClientOption) *Client {
	c := &Client{base: Background(), entries: make(map[pathKey]clientEntry)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures a Client at construction time, the same
// functional-options shape as the teacher's ScopeOption.
type ClientOption func(*Client)

// WithClientLogger binds a Logger into every Store the Client creates.
func WithClientLogger(l Logger) ClientOption {
	return func(c *Client) { c.base = With(c.base, LoggerKey, l) }
}

// WithClientClock binds a Clock into every Store the Client creates.
func WithClientClock(clock Clock) ClientOption {
	return func(c *Client) { c.base = With(c.base, ClockKey, clock) }
}

// WithTracing enables per-Store run tracing, retaining up to capacity
// entries per Path; retrieve them later via Client.Trace.
func WithTracing(capacity int) ClientOption {
	return func(c *Client) { c.base = With(c.base, TracerKey, NewTracer(capacity)) }
}

// Trace returns the recorded runs for path, oldest first, or nil if
// tracing was not enabled via WithTracing.
func (c *Client) Trace(path Path) []RunTrace {
	tracer := Get(c.base, TracerKey)
	if tracer == nil {
		return nil
	}
	return tracer.Trace(path)
}

// GetStore returns the existing Store at path, lazily creating it from
// op if this is the first request for that path. The returned Store is
// stable for the Client's lifetime: subsequent calls with an equal Path
// return the same instance, even if op differs (the first caller's op
// wins, matching the teacher's "first registration wins" Scope
// semantics).
func GetStore[T any](c *Client, path Path, op Operation[T]) *Store[T] {
	return GetStoreWithDeps[T](c, path, op)
}

// GetStoreWithDeps is GetStore's counterpart for an Operation that
// declares dependencies: deps must each produce a value before op's own
// run function executes, per TaskConfig.DependsOn. Dependencies are only
// bound the first time path is registered, the same "first registration
// wins" rule GetStore applies to op itself.
func GetStoreWithDeps[T any](c *Client, path Path, op Operation[T], deps ...ErasedStore) *Store[T] {
	key := path.Key()

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return e.typed.(*Store[T])
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.typed.(*Store[T])
	}
	store := NewStore[T](path, op, c.base, deps...)
	c.entries[key] = clientEntry{path: path, store: store.Controls(), typed: store}
	c.ordered = append(c.ordered, key)
	return store
}

// GetPaginatedStore is GetStore's counterpart for paginated Operations.
func GetPaginatedStore[T any](c *Client, path Path, op Operation[Page[T]]) *PaginatedStore[T] {
	key := path.Key()

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return e.typed.(*PaginatedStore[T])
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.typed.(*PaginatedStore[T])
	}
	store := NewPaginatedStore[T](path, op, c.base)
	c.entries[key] = clientEntry{path: path, store: store, typed: store}
	c.ordered = append(c.ordered, key)
	return store
}

// GetMutationStore is GetStore's counterpart for mutation Operations.
func GetMutationStore[T any](c *Client, path Path, op Operation[T], historyLimit int) *MutationStore[T] {
	key := path.Key()

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return e.typed.(*MutationStore[T])
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.typed.(*MutationStore[T])
	}
	store := NewMutationStore[T](path, op, c.base, historyLimit)
	c.entries[key] = clientEntry{path: path, store: store, typed: store}
	c.ordered = append(c.ordered, key)
	return store
}

// Lookup returns the ErasedStore at path without creating one, reporting
// whether it exists.
func (c *Client) Lookup(path Path) (ErasedStore, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path.Key()]
	return e.store, ok
}

// Paths returns every registered Path matching prefix, in registration
// order. Pass an empty Path (NewPath()) to match everything.
func (c *Client) Paths(prefix Path) []Path {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Path
	for _, key := range c.ordered {
		e := c.entries[key]
		if prefix.Len() == 0 || prefix.IsPrefixOf(e.path) {
			out = append(out, e.path)
		}
	}
	return out
}

// Stores returns every registered ErasedStore matching prefix.
func (c *Client) Stores(prefix Path) []ErasedStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []ErasedStore
	for _, key := range c.ordered {
		e := c.entries[key]
		if prefix.Len() == 0 || prefix.IsPrefixOf(e.path) {
			out = append(out, e.store)
		}
	}
	return out
}

// InvalidatePrefix calls Invalidate on every Store whose Path has the
// given prefix. Cached values are kept and no run is started.
func (c *Client) InvalidatePrefix(prefix Path) {
	for _, s := range c.Stores(prefix) {
		s.Invalidate()
	}
}

// ResetPrefix resets every Store whose Path has the given prefix.
func (c *Client) ResetPrefix(prefix Path) {
	for _, s := range c.Stores(prefix) {
		s.Reset()
	}
}
