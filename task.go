package opruntime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var taskIDSeq uint64

func nextTaskID() uint64 {
	return atomic.AddUint64(&taskIDSeq, 1)
}

// TaskConfig configures how a Task schedules and prioritizes its run.
type TaskConfig struct {
	Name     string
	Priority int
	// Path identifies this Task's own Store within the dependency graph,
	// so DependsOn edges can be checked for cycles against it.
	Path Path
	// DependsOn lists Stores that must have produced a value (run at
	// least once) before this Task's run function executes. Dependencies
	// are awaited concurrently (errgroup.Group), matching the teacher's
	// parallel dependency resolution in scope.go's Resolve chain.
	DependsOn []ErasedStore
}

// dependencyGraph tracks every Task-to-dependency edge ever inserted,
// keyed by Path, and rejects an edge that would close a cycle. Grounded
// on the teacher's ReactiveGraph (graph.go), an iterative DFS/stack-based
// traversal kept global here because dependencies can span Stores
// created by different Clients.
type dependencyGraph struct {
	mu    sync.Mutex
	edges map[pathKey]map[pathKey]struct{}
}

var globalDependencyGraph = &dependencyGraph{edges: make(map[pathKey]map[pathKey]struct{})}

// addEdge records that from depends on to. Cycle detection is a DFS from
// root (to) with a visited set, looking for a path back to from: if one
// exists, inserting from->to would close a cycle, so the edge is
// rejected and the link is broken rather than recorded.
func (g *dependencyGraph) addEdge(from, to Path) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	fromKey, toKey := from.Key(), to.Key()
	if fromKey == toKey || g.reachesLocked(toKey, fromKey) {
		return false
	}
	if g.edges[fromKey] == nil {
		g.edges[fromKey] = make(map[pathKey]struct{})
	}
	g.edges[fromKey][toKey] = struct{}{}
	return true
}

func (g *dependencyGraph) reachesLocked(from, to pathKey) bool {
	visited := make(map[pathKey]bool)
	stack := []pathKey{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for next := range g.edges[cur] {
			stack = append(stack, next)
		}
	}
	return false
}

// Task drives a single execution of an Operation: it assigns a stable
// id, exposes TaskInfo to the run function via Context, waits for
// declared dependencies (having first validated them against cycles),
// and memoizes its own in-flight run so a second call to Run while the
// first is still executing joins the same execution instead of starting
// a parallel one. Grounded on the teacher's Scope.Exec (scope.go),
// generalized from a single executor call into a reusable, repeatable
// Task value a Store can invoke many times across its lifetime.
type Task[T any] struct {
	id     uint64
	config TaskConfig
	op     Operation[T]

	deps      []ErasedStore
	depErrors []*RunError

	mu       sync.Mutex
	inFlight *taskRun[T]
}

type taskRun[T any] struct {
	done   chan struct{}
	value  T
	err    error
	cancel context.CancelFunc
}

// NewTask creates a Task that runs op with the given configuration,
// inserting each declared dependency into the global dependency graph
// and breaking (dropping) any edge that would close a cycle.
func NewTask[T any](op Operation[T], config TaskConfig) *Task[T] {
	t := &Task[T]{id: nextTaskID(), config: config, op: op}
	for _, dep := range config.DependsOn {
		if globalDependencyGraph.addEdge(config.Path, dep.Path()) {
			t.deps = append(t.deps, dep)
			continue
		}
		t.depErrors = append(t.depErrors, newRunError(ErrorKindCycleDetected, config.Path,
			fmt.Errorf("dependency cycle: %s -> %s", config.Path, dep.Path())))
	}
	return t
}

func (t *Task[T]) Info() TaskInfo {
	return TaskInfo{ID: t.id, Name: t.config.Name, Priority: t.config.Priority}
}

// Run executes the task's operation, awaiting its dependencies first. If
// a run is already in flight, Run joins it and returns its result rather
// than starting a second execution, the "memoized single-run" contract:
// callers racing to trigger the same Task's work are coalesced the same
// way Deduplicated coalesces concurrent Operation runs, but at the Task
// scheduling layer rather than inside the Operation's own Modifier
// chain. onYield, if non-nil, is called for every intermediate value the
// run function yields before its final Return/Error, so a caller (Store)
// can mirror those yields out to its own subscribers as they happen; it
// is ignored by callers that join an already in-flight run, since only
// the run's own goroutine observes its continuation.
func (t *Task[T]) Run(stdCtx context.Context, base Context, onYield func(T)) (T, error) {
	t.mu.Lock()
	if t.inFlight != nil {
		run := t.inFlight
		t.mu.Unlock()
		return t.await(stdCtx, run)
	}

	runCtx, cancel := context.WithCancel(stdCtx)
	run := &taskRun[T]{done: make(chan struct{}), cancel: cancel}
	t.inFlight = run
	t.mu.Unlock()

	go t.execute(runCtx, base, run, onYield)

	return t.await(stdCtx, run)
}

func (t *Task[T]) execute(stdCtx context.Context, base Context, run *taskRun[T], onYield func(T)) {
	defer func() {
		t.mu.Lock()
		if t.inFlight == run {
			t.inFlight = nil
		}
		t.mu.Unlock()
		close(run.done)
	}()

	if err := t.awaitDependencies(stdCtx, base); err != nil {
		run.err = err
		return
	}

	runCtx := WithStdContext(base, stdCtx)
	runCtx = With(runCtx, CurrentTaskInfoKey, t.Info())

	fn := t.op.build()
	var wg sync.WaitGroup
	wg.Add(1)
	c := newContinuation(func(v T, reason UpdateReason) {
		if reason == ReasonFinalReturned {
			run.value = v
			wg.Done()
			return
		}
		if onYield != nil {
			onYield(v)
		}
	}, func(err error) {
		run.err = err
		wg.Done()
	})
	fn(runCtx, c)
	wg.Wait()
}

// awaitDependencies runs (or joins an already-satisfied) RunIfNeeded on
// every dependency concurrently via errgroup, surfacing any cycle
// rejected at construction time as a diagnostic through the Logger bound
// in base before returning it, and wrapping a dependency's own failure
// as ErrorKindDependency so callers can tell it apart from a failure in
// this task's own run function.
func (t *Task[T]) awaitDependencies(stdCtx context.Context, base Context) error {
	if len(t.depErrors) > 0 {
		log := Get(base, LoggerKey)
		for _, e := range t.depErrors {
			log.Error("dependency cycle detected", map[string]any{
				"path":  t.config.Path.String(),
				"error": e.Error(),
			})
		}
		return t.depErrors[0]
	}
	if len(t.deps) == 0 {
		return nil
	}

	g, gCtx := errgroup.WithContext(stdCtx)
	for _, dep := range t.deps {
		dep := dep
		g.Go(func() error {
			if err := dep.RunIfNeeded(gCtx); err != nil {
				return newRunError(ErrorKindDependency, dep.Path(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (t *Task[T]) await(stdCtx context.Context, run *taskRun[T]) (T, error) {
	select {
	case <-run.done:
		return run.value, run.err
	case <-stdCtx.Done():
		var zero T
		if stdCtx.Err() == context.Canceled {
			return zero, ErrCancelled
		}
		return zero, stdCtx.Err()
	}
}

// Cancel cancels the context of the in-flight run, if any. The run stays
// in flight until its run function delivers a final value or error: a Run
// call made before then joins it, and a call made after starts a fresh
// execution.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	run := t.inFlight
	t.mu.Unlock()
	if run != nil {
		run.cancel()
	}
}

// MappedTask is a lightweight task sharing its underlying Task[T]'s
// execution, transforming the completed value through fn rather than
// re-running the operation, the teacher's Derive-style selector pattern
// (executor_generated.go) narrowed to a single explicit mapping.
type MappedTask[T, U any] struct {
	base *Task[T]
	fn   func(T) U
}

// MapTask wraps t so Run triggers (or joins) t's own execution and maps
// its result through fn, without declaring a second Operation or a
// second entry in the dependency graph.
func MapTask[T, U any](t *Task[T], fn func(T) U) *MappedTask[T, U] {
	return &MappedTask[T, U]{base: t, fn: fn}
}

// Run triggers (or joins) the underlying Task's execution and maps its
// completed value through fn.
func (m *MappedTask[T, U]) Run(stdCtx context.Context, base Context) (U, error) {
	v, err := m.base.Run(stdCtx, base, nil)
	if err != nil {
		var zero U
		return zero, err
	}
	return m.fn(v), nil
}
