// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎯 DirectiveOperation represents one executed directive for logging
type DirectiveOperation struct {
	Line   int    // Source line of the directive
	Name   string // Directive name (CREATE, DELETE, ...)
	Target string // Path or command the directive acted on
	Status string // Outcome (created/deleted/modified/skipped/failed)
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 LogDirective logs one directive outcome
func (l *Logger) LogDirective(ctx context.Context, op DirectiveOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var symbolColor color.Attribute
	var symbol rune
	switch op.Status {
	case "created":
		symbol = '✓'
		symbolColor = color.FgGreen
	case "deleted":
		symbol = '✗'
		symbolColor = color.FgRed
	case "modified":
		symbol = '⟳'
		symbolColor = color.FgBlue
	case "skipped":
		symbol = '-'
		symbolColor = color.FgYellow
	case "failed":
		symbol = '!'
		symbolColor = color.FgRed
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	fmt.Fprintf(l.console, "    %s [L%d] %-18s %s\n",
		color.New(symbolColor).Sprint(string(symbol)),
		op.Line,
		op.Name,
		op.Target)

	l.zlog.Info().
		Int("line", op.Line).
		Str("directive", op.Name).
		Str("target", op.Target).
		Str("status", op.Status).
		Msg("directive executed")
}

// 📝 Header logs the run header for one document
func (l *Logger) Header(document, backupDir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("kifdiff")
	fmt.Fprintf(l.console, "\n%s %s\n", name, color.New(color.Faint).Sprint("• "+document))
	if backupDir != "" {
		fmt.Fprintf(l.console, "%s\n\n", color.New(color.Faint).Sprintf("  backups: %s", backupDir))
	} else {
		fmt.Fprintf(l.console, "%s\n\n", color.New(color.FgYellow).Sprint("  backups: disabled"))
	}
	l.zlog.Info().Str("document", document).Str("backup_dir", backupDir).Msg("starting run")
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
