package opruntime

import (
	"time"

	"github.com/google/uuid"
)

// MutationEntry records one completed mutation attempt: a stable id (so
// UI layers can key off it instead of array index), the value or error
// it produced, and when it completed.
type MutationEntry[T any] struct {
	ID        string
	Value     T
	Err       error
	Completed time.Time
}

// MutationState tracks a mutation Operation's in-flight status plus a
// bounded history of past attempts. The history is capped (default 25,
// configurable via NewMutationStore's historyLimit) so a Store backing a frequently
// invoked mutation (e.g. "like post") does not grow without bound over
// an app's lifetime; oldest entries are evicted first.
type MutationState[T any] struct {
	baseState
	history []MutationEntry[T]
	limit   int
}

func newMutationState[T any](limit int) *MutationState[T] {
	if limit <= 0 {
		limit = 25
	}
	return &MutationState[T]{limit: limit}
}

// History returns a copy of the recorded attempts, oldest first.
func (m *MutationState[T]) History() []MutationEntry[T] {
	cp := make([]MutationEntry[T], len(m.history))
	copy(cp, m.history)
	return cp
}

// Latest returns the most recent entry, if any.
func (m *MutationState[T]) Latest() (MutationEntry[T], bool) {
	if len(m.history) == 0 {
		return MutationEntry[T]{}, false
	}
	return m.history[len(m.history)-1], true
}

func (m *MutationState[T]) record(value T, err error, now time.Time) {
	entry := MutationEntry[T]{ID: uuid.NewString(), Value: value, Err: err, Completed: now}
	m.history = append(m.history, entry)
	if len(m.history) > m.limit {
		m.history = m.history[len(m.history)-m.limit:]
	}
}

func (m *MutationState[T]) reset() {
	m.history = nil
	m.resetBase()
}
