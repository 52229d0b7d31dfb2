package opruntime

// RunSpecification is a composable, observable predicate used to gate
// automatic running (Context's AutoRunPredicateKey) and staleness
// (StalePredicateKey). It is deliberately small: Evaluate reports the
// current boolean state, Subscribe reports when that state might have
// changed so callers can re-evaluate and re-run gated operations. This
// generalizes the teacher's boolean Extension hooks (OnFlowStart,
// OnFlowEnd) into a standalone predicate object the way the spec's
// signal sources (network reachability, app activity, memory pressure)
// need to be pluggable outside the Operation/Modifier chain.
type RunSpecification interface {
	Evaluate() bool
	Subscribe(onChange func()) Subscription
}

// Always is a constant RunSpecification. Subscribe returns an inert
// Subscription since a constant predicate never changes.
type Always bool

func (a Always) Evaluate() bool { return bool(a) }

func (a Always) Subscribe(func()) Subscription {
	return newSubscription(func() {})
}

// and combines two RunSpecifications; And evaluates true only when both
// operands do, and notifies on either operand's change.
type and struct {
	a, b RunSpecification
}

// And returns a RunSpecification that is true iff both specs are true.
func And(a, b RunSpecification) RunSpecification {
	return and{a: a, b: b}
}

func (s and) Evaluate() bool { return s.a.Evaluate() && s.b.Evaluate() }

func (s and) Subscribe(onChange func()) Subscription {
	return Compose(s.a.Subscribe(onChange), s.b.Subscribe(onChange))
}

type or struct {
	a, b RunSpecification
}

// Or returns a RunSpecification that is true iff either spec is true.
func Or(a, b RunSpecification) RunSpecification {
	return or{a: a, b: b}
}

func (s or) Evaluate() bool { return s.a.Evaluate() || s.b.Evaluate() }

func (s or) Subscribe(onChange func()) Subscription {
	return Compose(s.a.Subscribe(onChange), s.b.Subscribe(onChange))
}

type not struct {
	a RunSpecification
}

// Not inverts a RunSpecification's evaluated value; change notifications
// pass through unchanged since a flip in the underlying value is still a
// change in the inverted value.
func Not(a RunSpecification) RunSpecification {
	return not{a: a}
}

func (s not) Evaluate() bool { return !s.a.Evaluate() }

func (s not) Subscribe(onChange func()) Subscription {
	return s.a.Subscribe(onChange)
}

// ManualSpecification is a RunSpecification whose value is set directly
// by the host program, useful in tests and for signals with no natural
// external event source.
type ManualSpecification struct {
	state *manualState
}

type manualState struct {
	list *subscriberList[func()]
	val  boolValue
}

type boolValue struct {
	mu  chan struct{}
	cur bool
}

// NewManualSpecification creates a RunSpecification whose value starts
// at initial and changes only via Set.
func NewManualSpecification(initial bool) ManualSpecification {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	return ManualSpecification{
		state: &manualState{
			list: newSubscriberList[func()](),
			val:  boolValue{mu: ch, cur: initial},
		},
	}
}

func (m ManualSpecification) Evaluate() bool {
	<-m.state.val.mu
	v := m.state.val.cur
	m.state.val.mu <- struct{}{}
	return v
}

// Set updates the predicate's value and, if it changed, notifies every
// subscriber.
func (m ManualSpecification) Set(v bool) {
	<-m.state.val.mu
	changed := m.state.val.cur != v
	m.state.val.cur = v
	m.state.val.mu <- struct{}{}
	if changed {
		for _, fn := range m.state.list.snapshot() {
			fn()
		}
	}
}

func (m ManualSpecification) Subscribe(onChange func()) Subscription {
	return m.state.list.add(onChange)
}
