// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package logger provides a thin wrapper around zerolog.Logger that adds
// convenience constructors and context-aware helpers used by the sync engine.
//
// The Logger type embeds zerolog.Logger so all standard zerolog methods
// (Debug, Info, Warn, Error, Fatal, etc.) are available directly on *Logger.
// Components receive *Logger at construction time; a sync pass attaches a
// pass-scoped child to its context and deeper layers obtain it via FromContext.
package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

func init() {
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"
}

// NewLogger constructs a *Logger writing JSON to os.Stdout for the given role
// label (e.g. "sync-engine").
//
// Every entry carries:
//   - a "role" field set to role;
//   - a timestamp;
//   - a "func" caller field holding the fully-qualified function name.
func NewLogger(role string) *Logger {
	return newLogger(os.Stdout, role, zerolog.DebugLevel)
}

// NewClientLogger constructs a *Logger for long-running client processes.
// Output goes to a "logs" file next to the executable so it does not interfere
// with interactive terminals; if that file cannot be opened the logger falls
// back to os.Stdout. level is parsed with zerolog.ParseLevel and defaults to
// debug when empty or invalid.
func NewClientLogger(role, level string) *Logger {
	var out io.Writer = os.Stdout

	execPath, err := os.Executable()
	if err == nil {
		logPath := filepath.Join(filepath.Dir(execPath), "logs")
		if f, openErr := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); openErr == nil {
			out = f
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}

	return newLogger(out, role, lvl)
}

func newLogger(w io.Writer, role string, lvl zerolog.Level) *Logger {
	zerolog.SetGlobalLevel(lvl)

	l := zerolog.New(w).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{l}
}

// Nop returns a *Logger that discards all log output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a new *Logger that inherits all fields of the
// receiver.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// WithCollection returns a child logger tagged with the collection UID.
func (l *Logger) WithCollection(collectionUID string) *Logger {
	return &Logger{l.With().Str("collection_uid", collectionUID).Logger()}
}

// WithPass returns a child logger tagged with the sync pass ID.
func (l *Logger) WithPass(passID string) *Logger {
	return &Logger{l.With().Str("pass_id", passID).Logger()}
}

// WithContext stores the logger in ctx so FromContext can retrieve it.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromContext extracts the zerolog.Logger stored in ctx by zerolog's log.Ctx
// helper and returns it as a *Logger.
//
// If no logger has been attached to ctx, zerolog returns its default logger,
// so this function never returns nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
