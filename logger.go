package cts

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/xrgo/cts/raster"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for cts and its sub-packages.
// By default the harness produces no log output. Pass nil to restore
// the silent default.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically and propagates it to the raster package.
//
// Log levels used by the harness:
//   - [slog.LevelDebug]: per-frame diagnostics (layer counts, verdict state)
//   - [slog.LevelInfo]: lifecycle events (session begun, verdict reached)
//   - [slog.LevelWarn]: non-fatal issues (teardown errors, clipped text)
//
// Example:
//
//	cts.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	raster.SetLogger(l)
}

// Logger returns the current harness logger. Sub-components call this
// to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
