package opruntime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunTrace records one completed run for later inspection: useful in
// tests and in debug tooling that wants to show "what ran, in what
// order, how long did it take" without instrumenting every call site.
// Grounded on the teacher's ExecutionTree/ExecutionNode (flow.go), which
// keeps a bounded ring of past flow executions for the same reason; this
// narrows that per-process tree down to a per-Store bounded queue since
// this runtime does not have flow.go's nested sub-execution concept.
type RunTrace struct {
	ID       string
	Path     Path
	Status   RunStatus
	Started  time.Time
	Duration time.Duration
	Err      error
}

// traceRing is a fixed-capacity ring buffer of RunTrace entries; once
// full, the oldest entry is evicted to make room for the newest, the
// same bounded-eviction policy the teacher's ExecutionTree applies to
// its node history.
type traceRing struct {
	mu       sync.Mutex
	capacity int
	entries  []RunTrace
}

func newTraceRing(capacity int) *traceRing {
	if capacity <= 0 {
		capacity = 50
	}
	return &traceRing{capacity: capacity}
}

func (r *traceRing) record(t RunTrace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, t)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
}

func (r *traceRing) snapshot() []RunTrace {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunTrace, len(r.entries))
	copy(out, r.entries)
	return out
}

// Tracer is a shared sink Stores report completed runs to; a Client
// typically owns one and exposes it via Client.Trace.
type Tracer struct {
	mu    sync.Mutex
	rings map[pathKey]*traceRing
	cap   int
}

// NewTracer creates a Tracer whose per-path rings hold up to capacity
// entries each.
func NewTracer(capacity int) *Tracer {
	return &Tracer{rings: make(map[pathKey]*traceRing), cap: capacity}
}

func (t *Tracer) ringFor(path Path) *traceRing {
	key := path.Key()
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rings[key]
	if !ok {
		r = newTraceRing(t.cap)
		t.rings[key] = r
	}
	return r
}

// Record appends a completed run's trace for its Path.
func (t *Tracer) Record(path Path, status RunStatus, started time.Time, duration time.Duration, err error) {
	t.ringFor(path).record(RunTrace{
		ID:       uuid.NewString(),
		Path:     path,
		Status:   status,
		Started:  started,
		Duration: duration,
		Err:      err,
	})
}

// Trace returns the recorded runs for path, oldest first.
func (t *Tracer) Trace(path Path) []RunTrace {
	return t.ringFor(path).snapshot()
}

// TracerKey binds a *Tracer into Context so Store.Run can record into it
// without the Store holding a direct reference to its owning Client.
var TracerKey = NewKey[*Tracer]("tracer", nil)
