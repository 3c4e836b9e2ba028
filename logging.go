// logging.go - structured logging for the runtime, built on logiface.
//
// Package-level configuration, following the same shape as the teacher's
// eventloop/logging.go (a global default plus the ability for any owning
// type to be handed its own logger): logging is a cross-cutting concern
// shared by the loop, the worker pool, and channels, so a
// package-level default avoids threading a logger through every
// constructor that doesn't care to customize it.
//
// Until [SetStructuredLogger] installs a logger, the package default is a
// logiface logger at the disabled level, so nothing is written. The
// ready-made backend is [NewStumpyLogger]: github.com/joeycumines/logiface
// over github.com/joeycumines/stumpy, logiface's own "model" JSON logger,
// writing newline-delimited JSON at the level it is given. Callers that want
// a different backend (zerolog, slog, logrus, ...) aren't required to
// construct a *logiface.Logger[*stumpy.Event]: any logiface.Event
// implementation works, since eventLogger wraps the logiface.Event
// interface directly.
package asyncio

import (
	"os"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// eventLogger wraps a logiface.Logger over the package-neutral
// logiface.Event interface, so any backend registered via a logiface
// integration package (stumpy, zerolog, slog, logrus, ...) can be attached
// without the runtime depending on that backend's concrete event type.
type eventLogger struct {
	l *logiface.Logger[logiface.Event]
}

// NewLogger wraps an existing *logiface.Logger[logiface.Event] for use as
// the runtime's structured logger.
func NewLogger(l *logiface.Logger[logiface.Event]) *eventLogger {
	return &eventLogger{l: l}
}

// NewStumpyLogger builds a default logger writing newline-delimited JSON
// to w at the given level, using logiface-stumpy, logiface's reference
// backend.
func NewStumpyLogger(w *os.File, level logiface.Level) *eventLogger {
	l := logiface.New[*stumpy.Event](
		stumpy.WithStumpy(stumpy.WithWriter(w)),
		logiface.WithLevel[*stumpy.Event](level),
	)
	return &eventLogger{l: l.Logger()}
}

var (
	globalLoggerMu sync.RWMutex
	globalLogger   *eventLogger
)

// SetStructuredLogger sets the package-level default logger used by any
// [Loop], [WorkerPool], or [Channel] that wasn't constructed
// with an explicit logger of its own.
func SetStructuredLogger(l *eventLogger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

func getGlobalLogger() *eventLogger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return noopEventLogger
}

var noopEventLogger = &eventLogger{l: logiface.New[logiface.Event](
	logiface.WithLevel[logiface.Event](logiface.LevelDisabled),
)}

func (e *eventLogger) orDefault() *eventLogger {
	if e != nil {
		return e
	}
	return getGlobalLogger()
}

func (e *eventLogger) debug(msg string) *logEvent {
	return e.orDefault().build(logiface.LevelDebug, msg)
}

func (e *eventLogger) info(msg string) *logEvent {
	return e.orDefault().build(logiface.LevelInformational, msg)
}

func (e *eventLogger) warn(msg string) *logEvent {
	return e.orDefault().build(logiface.LevelWarning, msg)
}

func (e *eventLogger) err(msg string) *logEvent {
	return e.orDefault().build(logiface.LevelError, msg)
}

func (e *eventLogger) build(level logiface.Level, msg string) *logEvent {
	return &logEvent{b: e.l.Build(level), msg: msg}
}

// logEvent wraps a logiface.Builder so call sites can chain field setters
// before finalizing with Log(); it is a thin adapter so hot paths that are
// logging-disabled don't need to special-case a nil builder.
type logEvent struct {
	b   *logiface.Builder[logiface.Event]
	msg string
}

func (e *logEvent) str(key, val string) *logEvent {
	if e.b != nil {
		e.b = e.b.Str(key, val)
	}
	return e
}

func (e *logEvent) dur(key string, d time.Duration) *logEvent {
	if e.b != nil {
		e.b = e.b.Dur(key, d)
	}
	return e
}

func (e *logEvent) errf(err error) *logEvent {
	if e.b != nil {
		e.b = e.b.Err(err)
	}
	return e
}

func (e *logEvent) log() {
	if e.b != nil {
		e.b.Log(e.msg)
	}
}
