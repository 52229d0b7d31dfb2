package signals

import (
	"runtime"
	"sync"
	"time"

	"github.com/opruntime/opruntime"
)

// Memory is a RunSpecification reporting whether heap usage is below a
// configured ceiling. Operations that fetch and cache large payloads
// (full-table scans, image blobs) can bind opruntime.Not(memory) via
// StaleWhen, matching the "paused under memory pressure" signal source
// spec.md §6 names.
type Memory struct {
	ceilingBytes uint64

	mu sync.Mutex
	ok bool

	subs *subList
}

// NewMemory creates a Memory signal considered healthy while heap-in-use
// stays below ceilingBytes. Call Poll to start a background sampler.
func NewMemory(ceilingBytes uint64) *Memory {
	return &Memory{ceilingBytes: ceilingBytes, ok: true, subs: newSubList()}
}

func (m *Memory) Evaluate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ok
}

func (m *Memory) Subscribe(onChange func()) opruntime.Subscription {
	return m.subs.add(onChange)
}

// Sample reads current heap stats and updates the signal.
func (m *Memory) Sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	ok := stats.HeapInuse < m.ceilingBytes

	m.mu.Lock()
	changed := m.ok != ok
	m.ok = ok
	m.mu.Unlock()

	if changed {
		m.subs.notify()
	}
}

// Poll starts sampling every interval in a background goroutine until
// the returned function is called.
func (m *Memory) Poll(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sample()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
