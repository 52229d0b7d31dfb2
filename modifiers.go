package opruntime

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Retry returns a Modifier that re-runs the wrapped operation on error,
// waiting between attempts according to the BackoffFunc and Delayer
// bound in Context (BackoffKey, DelayerKey), for up to limit retries after
// the first attempt (limit+1 attempts in all; 0 means no retry). The limit
// is published via RetryLimitKey and each attempt's index via
// RetryIndexKey, so nested modifiers and the run function itself can
// observe which attempt is in flight.
func Retry[T any](limit int) Modifier[T] {
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			ctx = With(ctx, RetryLimitKey, limit)
			backoffFn := Get(ctx, BackoffKey)
			delayer := Get(ctx, DelayerKey)

			var attempt func(idx int)
			attempt = func(idx int) {
				attemptCtx := With(ctx, RetryIndexKey, idx)
				wrapped := newContinuation(func(v T, reason UpdateReason) {
					c.deliver(v, reason, nil)
				}, func(err error) {
					if idx >= limit {
						c.Error(err)
						return
					}
					delay := backoffFn(idx + 1)
					if derr := delayer.Delay(StdContext(ctx), delay); derr != nil {
						c.Error(err)
						return
					}
					attempt(idx + 1)
				})
				next(attemptCtx, wrapped)
			}
			attempt(0)
		}
	})
}

// Deduplicated returns a Modifier ensuring that concurrent runs sharing
// the same key collapse into a single underlying execution, with every
// caller receiving the same result. It is built on golang.org/x/sync's
// singleflight.Group (the call-sharing primitive); intermediate yields of
// the shared run reach only the caller that started it. There is no
// per-caller cancellation: each caller waits for the shared run's final
// value or error, and the shared run is never abandoned when callers'
// contexts are cancelled.
func Deduplicated[T any](keyFn func(ctx Context) string) Modifier[T] {
	group := &singleflight.Group{}
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			key := keyFn(ctx)
			resultCh := make(chan T, 1)
			errCh := make(chan error, 1)

			go func() {
				v, err, _ := group.Do(key, func() (any, error) {
					var result T
					var runErr error
					var wg sync.WaitGroup
					wg.Add(1)
					wrapped := newContinuation(func(value T, reason UpdateReason) {
						if reason == ReasonFinalReturned {
							result = value
							wg.Done()
						} else {
							c.Yield(value)
						}
					}, func(err error) {
						runErr = err
						wg.Done()
					})
					next(ctx, wrapped)
					wg.Wait()
					return result, runErr
				})
				if err != nil {
					errCh <- err
					return
				}
				resultCh <- v.(T)
			}()

			select {
			case v := <-resultCh:
				c.Return(v)
			case err := <-errCh:
				c.Error(err)
			}
		}
	})
}

// StaleWhen returns a Modifier that binds the given RunSpecification as
// Context's StalePredicateKey for the wrapped run function and every
// modifier after this one in the chain. Stores do not read
// StalePredicateKey: binding it does not start, force, or skip any run.
func StaleWhen[T any](spec RunSpecification) Modifier[T] {
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			ctx = With(ctx, StalePredicateKey, spec)
			next(ctx, c)
		}
	})
}

// EnableAutomaticRunning returns a Modifier binding the given
// RunSpecification as Context's AutoRunPredicateKey for the wrapped run
// function and every modifier after this one in the chain. Stores do not
// schedule automatic runs and do not read AutoRunPredicateKey; every run
// is started by an explicit call.
func EnableAutomaticRunning[T any](spec RunSpecification) Modifier[T] {
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			ctx = With(ctx, AutoRunPredicateKey, spec)
			next(ctx, c)
		}
	})
}

// DefaultValue returns a Modifier that immediately yields value before
// the wrapped run function executes, so subscribers observe a usable
// placeholder while the real run is in flight instead of an absence.
func DefaultValue[T any](value T) Modifier[T] {
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			c.Yield(value)
			next(ctx, c)
		}
	})
}

// WithController returns a Modifier that appends the given Controllers
// to Context's ControllersKey list, so the run function and any
// modifiers after this one in the chain can imperatively drive those
// other Stores (invalidate a dependency, peek its cached value) without
// a direct Go import of the dependency's package.
func WithController[T any](controllers ...ErasedStore) Modifier[T] {
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			existing := Get(ctx, ControllersKey)
			merged := make([]ErasedStore, 0, len(existing)+len(controllers))
			merged = append(merged, existing...)
			merged = append(merged, controllers...)
			ctx = With(ctx, ControllersKey, merged)
			next(ctx, c)
		}
	})
}

// RerunOnChange returns a Modifier that subscribes to each dependency's
// OnChange the first time the wrapped Operation runs, invoking trigger
// (typically a closure over this Operation's own Store.Run) whenever a
// dependency publishes a new value. The subscriptions live for the
// process lifetime of the Modifier value; construct a fresh one per
// Store rather than sharing across Stores.
func RerunOnChange[T any](trigger func(), deps ...ErasedStore) Modifier[T] {
	var once sync.Once
	var subs []Subscription
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			once.Do(func() {
				if trigger == nil {
					return
				}
				for _, d := range deps {
					subs = append(subs, d.OnChange(trigger))
				}
			})
			next(ctx, c)
		}
	})
}

