// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides structured, leveled logging over log/slog.
// Packages obtain a scoped logger via WithContext and attach key/value
// pairs per call site.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"sync/atomic"

	"github.com/holiman/uint256"
	"github.com/mattn/go-isatty"
)

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger is the leveled key/value logger used across the repo.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type logger struct {
	inner *slog.Logger
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(normalize(ctx)...)}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, normalize(ctx)...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }

// normalize stringifies big numbers so every handler renders them the same way.
func normalize(ctx []any) []any {
	for i := 1; i < len(ctx); i += 2 {
		switch v := ctx[i].(type) {
		case *big.Int:
			if v != nil {
				ctx[i] = v.String()
			}
		case *uint256.Int:
			if v != nil {
				ctx[i] = v.Dec()
			}
		case fmt.Stringer:
			ctx[i] = v.String()
		}
	}
	return ctx
}

var (
	root      atomic.Pointer[logger]
	verbosity slog.LevelVar
)

func init() {
	verbosity.Set(LevelInfo)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &verbosity})
	root.Store(&logger{slog.New(handler)})
}

// SetDefault sets the root handler for all scoped loggers created afterwards.
func SetDefault(handler slog.Handler) {
	root.Store(&logger{slog.New(handler)})
}

// SetVerbosity adjusts the minimum level emitted by the default handlers.
func SetVerbosity(level slog.Level) {
	verbosity.Set(level)
}

// FromLegacyLevel maps the numeric verbosity scale used by the CLI
// (0=crit .. 5=trace) onto slog levels.
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case 0, 1:
		return LevelError
	case 2:
		return LevelWarn
	case 3:
		return LevelInfo
	case 4:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// ColorEnabled reports whether stderr is an interactive terminal.
func ColorEnabled() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}

// Root returns the root logger.
func Root() Logger {
	return root.Load()
}

// WithContext returns a logger scoped with the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}
