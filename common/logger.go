package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the engine and all of its packages.
// The engine is silent by default. Passing nil restores the silent logger.
// Safe for concurrent use.
//
// Levels used:
//   - slog.LevelDebug: per-frame diagnostics (stage counts, readback sizes)
//   - slog.LevelInfo: lifecycle events (backend selected, pick target created)
//   - slog.LevelWarn: rejected calls and recoverable failures
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the currently installed logger. Never nil.
//
// Returns:
//   - *slog.Logger: the active logger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// SoftAssert logs a warning when cond is false and reports cond back to the caller,
// so a public entry point can bail out without panicking.
//
// Parameters:
//   - cond: the condition that must hold
//   - msg: the message logged when the condition fails
//   - args: optional slog key/value pairs
//
// Returns:
//   - bool: the value of cond
func SoftAssert(cond bool, msg string, args ...any) bool {
	if !cond {
		Logger().Warn("assertion failed: "+msg, args...)
	}
	return cond
}
