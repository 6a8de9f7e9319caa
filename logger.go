// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"context"
	"log/slog"
	"sync/atomic"
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
// SetLogger can be called concurrently with synchronization cycles.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for subscene and all its sub-packages.
// By default, subscene produces no log output.
//
// Pass nil to restore the default silent behavior.
//
// Log levels used by subscene:
//   - [slog.LevelDebug]: planner state transitions, buffer uploads
//   - [slog.LevelInfo]: lifecycle events (plugin load/unload, device opened)
//   - [slog.LevelWarn]: degraded cycles (skipped instances, unavailable resources)
//   - [slog.LevelError]: a synchronization cycle recovered from a panic
//
// Example:
//
//	subscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages (backend/native,
// scenefile) call this to share the same configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
