package signals

import (
	"sync"
	"time"

	"github.com/opruntime/opruntime"
)

// Activity is a RunSpecification reporting whether the host app has
// observed user interaction within its window. Typical wiring: call Touch
// from input handlers, and gate background refresh Operations on this
// signal so they pause while the user is visibly idle.
type Activity struct {
	window time.Duration
	clock  opruntime.Clock

	mu   sync.Mutex
	last time.Time
	subs *subList
}

// NewActivity creates an Activity signal that considers the app active
// if Touch was called within window of now.
func NewActivity(window time.Duration, clock opruntime.Clock) *Activity {
	if clock == nil {
		clock = opruntime.Get(opruntime.Background(), opruntime.ClockKey)
	}
	return &Activity{
		window: window,
		clock:  clock,
		last:   clock.Now(),
		subs:   newSubList(),
	}
}

// Touch records user interaction at the current time, notifying
// subscribers if this transitions Evaluate from false to true.
func (a *Activity) Touch() {
	now := a.clock.Now()
	a.mu.Lock()
	wasActive := now.Sub(a.last) <= a.window
	a.last = now
	a.mu.Unlock()
	if !wasActive {
		a.subs.notify()
	}
}

func (a *Activity) Evaluate() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock.Now().Sub(a.last) <= a.window
}

func (a *Activity) Subscribe(onChange func()) opruntime.Subscription {
	return a.subs.add(onChange)
}
