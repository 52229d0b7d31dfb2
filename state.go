package opruntime

import "time"

// RunStatus reports where a Store's current execution stands.
type RunStatus int

const (
	StatusIdle RunStatus = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s RunStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is the common protocol every state variant (single-value,
// paginated, mutation) implements so Store can manage them uniformly:
// report run status, last update time and last error, and reset to the
// zero state. Each variant additionally exposes its own typed
// accessors (state_single.go, state_paginated.go, state_mutation.go).
type State interface {
	Status() RunStatus
	UpdatedAt() (time.Time, bool)
	LastError() error
	reset()
}

// baseState holds the fields common to all three variants: status,
// last-updated timestamp, and the last error observed. Each variant
// embeds it instead of repeating the bookkeeping.
type baseState struct {
	status    RunStatus
	updatedAt time.Time
	hasUpdate bool
	lastErr   error
}

func (b *baseState) Status() RunStatus { return b.status }

func (b *baseState) UpdatedAt() (time.Time, bool) {
	return b.updatedAt, b.hasUpdate
}

func (b *baseState) LastError() error { return b.lastErr }

func (b *baseState) markRunning() {
	b.status = StatusRunning
}

func (b *baseState) markSucceeded(now time.Time) {
	b.status = StatusSucceeded
	b.updatedAt = now
	b.hasUpdate = true
	b.lastErr = nil
}

func (b *baseState) markFailed(now time.Time, err error) {
	b.status = StatusFailed
	b.updatedAt = now
	b.lastErr = err
}

func (b *baseState) resetBase() {
	*b = baseState{}
}
