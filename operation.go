package opruntime

// OperationFunc is the shape every Operation run function and every
// Modifier-wrapped stage share: given a Context carrying the well-known
// keys (clock, backoff, logger, and so on) and a Continuation to publish
// results through, perform the work. It never returns a value directly;
// all output, including the final value, flows through c.
type OperationFunc[T any] func(ctx Context, c Continuation[T])

// Modifier wraps an OperationFunc to add cross-cutting behavior (retry,
// deduplication, staleness, logging) without the wrapped function having
// to know about it. Modifiers compose: Operation.build applies each one
// in turn, innermost first, so the first Modifier in the chain sees the
// fully-wrapped behavior of every modifier after it. This is the
// recursive wrapping strategy the teacher's Extension.Wrap uses for
// Resolve/Update (extension.go), generalized from a single Extension
// slot to an explicit, user-ordered chain.
type Modifier[T any] interface {
	Wrap(next OperationFunc[T]) OperationFunc[T]
}

// ModifierFunc adapts a plain function to the Modifier interface, the
// same func-to-interface adapter shape as http.HandlerFunc.
type ModifierFunc[T any] func(next OperationFunc[T]) OperationFunc[T]

func (f ModifierFunc[T]) Wrap(next OperationFunc[T]) OperationFunc[T] {
	return f(next)
}

// Operation describes a unit of async work: a Path identifying it within
// a Client, the base run function, and the chain of Modifiers applied
// around it. Operation values are immutable and safe to share; a Store
// is the stateful runtime instance created from one.
type Operation[T any] struct {
	path      Path
	run       OperationFunc[T]
	modifiers []Modifier[T]
}

// NewOperation declares a single-value Operation at path, whose work is
// performed by run.
func NewOperation[T any](path Path, run OperationFunc[T]) Operation[T] {
	return Operation[T]{path: path, run: run}
}

// WithModifiers returns a copy of the Operation with the given Modifiers
// appended to its chain, applied in the order listed (first listed is
// outermost).
func (o Operation[T]) WithModifiers(mods ...Modifier[T]) Operation[T] {
	next := make([]Modifier[T], 0, len(o.modifiers)+len(mods))
	next = append(next, o.modifiers...)
	next = append(next, mods...)
	o.modifiers = next
	return o
}

func (o Operation[T]) Path() Path { return o.path }

// build composes the final OperationFunc by wrapping run with every
// modifier, innermost (last listed) first so the first listed ends up
// outermost, then wraps the whole chain with panic
// recovery so a panicking run function surfaces as a RunError instead of
// crashing the caller's goroutine, matching the teacher's executeFlow
// recover block (flow.go).
func (o Operation[T]) build() OperationFunc[T] {
	fn := o.run
	for i := len(o.modifiers) - 1; i >= 0; i-- {
		fn = o.modifiers[i].Wrap(fn)
	}
	path := o.path
	inner := fn
	return func(ctx Context, c Continuation[T]) {
		defer func() {
			if r := recover(); r != nil {
				for _, e := range Get(ctx, ExtensionsKey).items {
					e.OnPanic(path, r)
				}
				c.Error(recoverToError(path, r))
			}
		}()
		inner(ctx, c)
	}
}
