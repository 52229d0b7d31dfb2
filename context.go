package opruntime

import (
	"context"
	"time"
)

// Key is a type-safe context key with a compile-time-known default value.
// The pattern mirrors the teacher's Tag[T] (tag.go): a small value type
// wrapping a string identity, with Get/Set helpers carrying the type
// parameter so callers never type-assert by hand.
type Key[T any] struct {
	name       string
	defaultVal T
}

// NewKey declares a new typed context key with the given default value.
func NewKey[T any](name string, defaultVal T) Key[T] {
	return Key[T]{name: name, defaultVal: defaultVal}
}

func (k Key[T]) Name() string { return k.name }

// Context is an immutable, copy-on-write mapping from typed key to value.
// Reads never fail (a missing key yields the key's default). Writes
// return a new Context; the receiver is never mutated, so a Context held
// by one goroutine is never affected by another goroutine deriving from
// the same parent.
type Context struct {
	values map[string]any
}

// Background returns an empty Context; every well-known key reads back
// its default value until explicitly set.
func Background() Context {
	return Context{}
}

// Get returns the value for k, or k's default if unset.
func Get[T any](c Context, k Key[T]) T {
	if c.values == nil {
		return k.defaultVal
	}
	if v, ok := c.values[k.name]; ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	return k.defaultVal
}

// Lookup is like Get but additionally reports whether the key was set.
func Lookup[T any](c Context, k Key[T]) (T, bool) {
	if c.values != nil {
		if v, ok := c.values[k.name]; ok {
			if typed, ok := v.(T); ok {
				return typed, true
			}
		}
	}
	return k.defaultVal, false
}

// With returns a new Context with k bound to value. The parent Context is
// left untouched (copy-on-write): any Context already holding a reference
// to c continues to see the old value.
func With[T any](c Context, k Key[T], value T) Context {
	next := make(map[string]any, len(c.values)+1)
	for key, v := range c.values {
		next[key] = v
	}
	next[k.name] = value
	return Context{values: next}
}

// Well-known keys (spec.md §3).
var (
	ClockKey             = NewKey[Clock]("clock", systemClock{})
	DelayerKey           = NewKey[Delayer]("delayer", taskDelayer{})
	BackoffKey           = NewKey[BackoffFunc]("backoff", FibonacciBackoff(time.Second))
	RetryLimitKey        = NewKey[int]("retry_limit", 0)
	RetryIndexKey        = NewKey[int]("retry_index", 0)
	AutoRunPredicateKey  = NewKey[RunSpecification]("auto_run_predicate", Always(true))
	StalePredicateKey    = NewKey[RunSpecification]("stale_predicate", Always(true))
	ClientKey            = NewKey[*Client]("client", nil)
	CurrentPathKey       = NewKey[Path]("current_path", Path{})
	CurrentStoreKey      = NewKey[ErasedStore]("current_store", nil)
	CurrentTaskInfoKey   = NewKey[TaskInfo]("current_task_info", TaskInfo{})
	ResultUpdateReasonKey = NewKey[UpdateReason]("result_update_reason", ReasonYielded)
	PaginatedFetchTypeKey = NewKey[FetchType]("paginated.fetch_type", FetchTypeNone)
	ControllersKey        = NewKey[[]ErasedStore]("controllers", nil)
	LoggerKey             = NewKey[Logger]("logger", nopLogger{})
	stdContextKey         = NewKey[context.Context]("std_context", context.Background())
)

// StdContext returns the standard library context.Context bound to c, or
// context.Background() if none was bound. Store.Run binds the caller's
// context here so Delayer waits and other blocking calls cooperate with
// the caller's own cancellation and deadlines.
func StdContext(c Context) context.Context {
	return Get(c, stdContextKey)
}

// WithStdContext returns a new Context with std bound as the standard
// library context.Context other helpers read via StdContext.
func WithStdContext(c Context, std context.Context) Context {
	return With(c, stdContextKey, std)
}

// UpdateReason tags why a value changed.
type UpdateReason int

const (
	ReasonYielded UpdateReason = iota
	ReasonFinalReturned
)

func (r UpdateReason) String() string {
	if r == ReasonFinalReturned {
		return "final-returned"
	}
	return "yielded"
}

// FetchType identifies which paginated sub-fetch produced a result.
type FetchType int

const (
	FetchTypeNone FetchType = iota
	FetchTypeInitial
	FetchTypeNext
	FetchTypePrevious
	FetchTypeAll
)

func (f FetchType) String() string {
	switch f {
	case FetchTypeInitial:
		return "initial"
	case FetchTypeNext:
		return "next"
	case FetchTypePrevious:
		return "previous"
	case FetchTypeAll:
		return "all"
	default:
		return "none"
	}
}

// TaskInfo describes the task executing the current run, exposed to
// modifiers (deduplicate keys on it) and to user operations via Context.
type TaskInfo struct {
	ID       uint64
	Name     string
	Priority int
}
