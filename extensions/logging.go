// Package extensions holds cross-cutting Client-wide hooks built on
// opruntime.Extension, the kind of thing a host app installs once for
// every Store rather than declaring per-Operation.
package extensions

import (
	"time"

	"github.com/opruntime/opruntime"
)

// LoggingExtension logs every run's start, completion, and duration
// through the given opruntime.Logger. It replaces fmt.Printf-based
// console logging with the structured Logger seam the rest of this
// runtime writes through, so a host app can route it into whatever
// sink it already uses.
type LoggingExtension struct {
	opruntime.BaseExtension
	logger opruntime.Logger

	mu      chan struct{}
	started map[string]time.Time
}

// NewLoggingExtension creates an Extension that logs through logger.
func NewLoggingExtension(logger opruntime.Logger) *LoggingExtension {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	return &LoggingExtension{
		logger:  logger,
		mu:      ch,
		started: make(map[string]time.Time),
	}
}

func (e *LoggingExtension) OnRunStart(path opruntime.Path) {
	key := path.String()
	<-e.mu
	e.started[key] = time.Now()
	e.mu <- struct{}{}
	e.logger.Debug("run started", map[string]any{"path": key})
}

func (e *LoggingExtension) OnRunEnd(path opruntime.Path, err error) {
	key := path.String()
	<-e.mu
	start, ok := e.started[key]
	delete(e.started, key)
	e.mu <- struct{}{}

	var elapsed time.Duration
	if ok {
		elapsed = time.Since(start)
	}
	if err != nil {
		e.logger.Error("run failed", map[string]any{
			"path":     key,
			"duration": elapsed.String(),
			"error":    err.Error(),
		})
		return
	}
	e.logger.Info("run completed", map[string]any{
		"path":     key,
		"duration": elapsed.String(),
	})
}

func (e *LoggingExtension) OnPanic(path opruntime.Path, recovered any) {
	e.logger.Error("run panicked", map[string]any{
		"path":  path.String(),
		"panic": recovered,
	})
}
