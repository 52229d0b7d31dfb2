// Package signals provides RunSpecification sources grounded in real
// process and environment state, rather than the manual or boolean-
// algebra predicates opruntime itself supplies: network reachability,
// recent app activity, and memory pressure. Each is an external
// collaborator an Operation's EnableAutomaticRunning or StaleWhen
// modifier can gate on.
package signals

import (
	"net"
	"sync"
	"time"

	"github.com/opruntime/opruntime"
)

// Network is a RunSpecification that reports whether the most recent
// reachability probe (Probe's target) succeeded. Poll starts a background goroutine that
// re-probes every interval until the returned stop function is called;
// Evaluate always reports the last probe's outcome without blocking.
type Network struct {
	mu   sync.RWMutex
	ok   bool
	subs *subList
}

type subList struct {
	mu    sync.Mutex
	id    int
	items map[int]func()
}

func newSubList() *subList { return &subList{items: make(map[int]func())} }

func (s *subList) add(fn func()) opruntime.Subscription {
	s.mu.Lock()
	id := s.id
	s.id++
	s.items[id] = fn
	s.mu.Unlock()
	return opruntime.NewSubscription(func() {
		s.mu.Lock()
		delete(s.items, id)
		s.mu.Unlock()
	})
}

func (s *subList) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.items))
	for _, fn := range s.items {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// NewNetwork creates a Network signal, initially reporting reachable,
// until the first probe runs.
func NewNetwork() *Network {
	return &Network{ok: true, subs: newSubList()}
}

func (n *Network) Evaluate() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ok
}

func (n *Network) Subscribe(onChange func()) opruntime.Subscription {
	return n.subs.add(onChange)
}

// Probe dials target with timeout and updates the signal's value,
// notifying subscribers if it changed.
func (n *Network) Probe(target string, timeout time.Duration) {
	conn, err := net.DialTimeout("tcp", target, timeout)
	ok := err == nil
	if conn != nil {
		conn.Close()
	}

	n.mu.Lock()
	changed := n.ok != ok
	n.ok = ok
	n.mu.Unlock()

	if changed {
		n.subs.notify()
	}
}

// Poll starts probing target every interval in a background goroutine
// until the returned function is called.
func (n *Network) Poll(target string, interval, timeout time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.Probe(target, timeout)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
