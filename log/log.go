// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the leveled key/value logger of nodepool, backed by the
// go-ethereum slog logger.
package log

import (
	"io"
	"log/slog"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Levels, compatible with the legacy 0-5 verbosity flag.
const (
	LevelTrace = gethlog.LevelTrace
	LevelDebug = gethlog.LevelDebug
	LevelInfo  = gethlog.LevelInfo
	LevelWarn  = gethlog.LevelWarn
	LevelError = gethlog.LevelError
	LevelCrit  = gethlog.LevelCrit
)

// Logger writes key/value pairs at a level.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

// logger adapts a go-ethereum logger.
type logger struct {
	inner gethlog.Logger
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return &logger{gethlog.NewLogger(h)}
}

func (l *logger) With(ctx ...any) Logger       { return &logger{l.inner.With(ctx...)} }
func (l *logger) Trace(msg string, ctx ...any) { l.inner.Trace(msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.inner.Debug(msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.inner.Info(msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.inner.Warn(msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.inner.Error(msg, ctx...) }

// lazyLogger resolves the root logger on every call, so package level
// loggers follow SetDefault made after they are declared.
type lazyLogger struct {
	ctx []any
}

func (l *lazyLogger) get() gethlog.Logger {
	return gethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &lazyLogger{append(merged, ctx...)}
}
func (l *lazyLogger) Trace(msg string, ctx ...any) { l.get().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.get().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.get().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.get().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.get().Error(msg, ctx...) }

// WithContext returns a logger carrying ctx that writes through the root logger.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx}
}

// Root returns the root logger.
func Root() Logger {
	return &lazyLogger{}
}

// SetDefault sets the root handler.
func SetDefault(h slog.Handler) {
	gethlog.SetDefault(gethlog.NewLogger(h))
}

// NewTerminalHandlerWithLevel returns a handler writing human readable lines.
func NewTerminalHandlerWithLevel(w io.Writer, level slog.Level, useColor bool) slog.Handler {
	return gethlog.NewTerminalHandlerWithLevel(w, level, useColor)
}

// JSONHandlerWithLevel returns a handler writing one json object per record.
func JSONHandlerWithLevel(w io.Writer, level slog.Level) slog.Handler {
	return gethlog.JSONHandlerWithLevel(w, level)
}

// FromLegacyLevel converts a 0-5 verbosity into a level.
func FromLegacyLevel(lvl int) slog.Level {
	return gethlog.FromLegacyLevel(lvl)
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return slog.DiscardHandler
}

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }
