package opruntime

import (
	"github.com/sirupsen/logrus"
)

// Logger is the structured logging seam every component in this runtime
// writes through instead of calling fmt/log/slog directly, so hosts can
// plug in whatever sink their service already uses. Shaped after the
// teacher's LoggingExtension (extensions/logging.go), which logs
// resolve/update start, end, and duration; this interface generalizes
// that into level-tagged structured fields instead of fmt.Printf text.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// nopLogger is the zero-value default: every call is a no-op, so a
// Context built with Background() never has to special-case a nil
// Logger.
type nopLogger struct{}

func (nopLogger) Debug(string, map[string]any) {}
func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Warn(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}

// logrusLogger adapts a *logrus.Logger to the Logger interface.
type logrusLogger struct {
	entry *logrus.Logger
}

// NewLogrusLogger wraps an existing logrus.Logger so it can be bound to
// Context via LoggerKey.
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.New()
	}
	return logrusLogger{entry: l}
}

func (l logrusLogger) Debug(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l logrusLogger) Info(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l logrusLogger) Warn(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l logrusLogger) Error(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}

// LogDuration returns a Modifier that logs the start and completion of
// every run of the wrapped Operation, including elapsed time, through
// the Logger bound in Context (LoggerKey). Grounded directly on the
// teacher's LoggingExtension wrap behavior, upgraded from fmt.Printf to
// the structured Logger seam.
func LogDuration[T any]() Modifier[T] {
	return ModifierFunc[T](func(next OperationFunc[T]) OperationFunc[T] {
		return func(ctx Context, c Continuation[T]) {
			log := Get(ctx, LoggerKey)
			path, _ := Lookup(ctx, CurrentPathKey)
			start := Get(ctx, ClockKey).Now()
			log.Debug("run started", map[string]any{"path": path.String()})

			wrapped := newContinuation(func(v T, reason UpdateReason) {
				if reason == ReasonFinalReturned {
					log.Info("run completed", map[string]any{
						"path":     path.String(),
						"duration": Get(ctx, ClockKey).Now().Sub(start).String(),
					})
				}
				c.deliver(v, reason, nil)
			}, func(err error) {
				log.Error("run failed", map[string]any{
					"path":     path.String(),
					"duration": Get(ctx, ClockKey).Now().Sub(start).String(),
					"error":    err.Error(),
				})
				c.Error(err)
			})
			next(ctx, wrapped)
		}
	})
}
