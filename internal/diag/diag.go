// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package diag carries the process-wide logger and the fatal-error path
// shared by every package in the HAL.
//
// Programmer errors — invalid handles outside the documented epoch-check
// paths, command-stream corruption, allocator over-commit, capacity
// exhaustion, mismatched shader-table writes — are unrecoverable by
// design: Fatalf logs the diagnostic at error level and panics. The
// public API deliberately does not thread error returns through these
// paths.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// nopHandler silently discards all log records. Enabled returns false so
// the caller skips message formatting entirely, making disabled logging
// effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the whole HAL. Pass nil to
// restore the default silent behavior. Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Packages call this at the log site
// rather than caching the result, so SetLogger takes effect immediately.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// Fatalf reports an unrecoverable programmer or driver error: it logs the
// formatted message at error level, then panics with the same message.
// It never returns.
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Logger().Error(msg)
	panic("hal: " + msg)
}

// Assert panics via Fatalf when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		Fatalf(format, args...)
	}
}
