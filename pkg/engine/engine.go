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

// Package engine executes parsed kifdiff programs against the filesystem.
// Directives run strictly in document order; each one is wrapped in a
// fault boundary so a single bad directive never aborts the run.
package engine

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/kifdiff/pkg/ast"
	"github.com/walteh/kifdiff/pkg/backup"
	"github.com/walteh/kifdiff/pkg/log"
	"github.com/walteh/kifdiff/pkg/parser"
	"github.com/walteh/kifdiff/pkg/policy"
	"github.com/walteh/kifdiff/pkg/report"
	"github.com/walteh/kifdiff/pkg/runner"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options is the read-only run configuration shared by every handler.
// It is fixed once a run starts.
type Options struct {
	DryRun      bool
	Interactive bool
	NoBackup    bool
	Verbose     bool

	// BackupDir is the session directory backups land in, for display
	// only; Backup owns the actual writes.
	BackupDir string

	// DefaultTimeout and MaxTimeout bound RUN directive execution.
	DefaultTimeout time.Duration
	MaxTimeout     time.Duration

	Backup   backup.Service
	Policy   policy.Checker
	Runner   *runner.Runner
	Prompter Prompter
	Report   *report.Buffer
	Logger   *log.Logger
}

// 🎮 Executor walks a Program and dispatches each directive to its handler.
type Executor struct {
	opts  Options
	stats *Stats
}

// New creates an executor, filling in defaults for absent collaborators.
func New(opts Options) *Executor {
	if opts.Report == nil {
		opts.Report = report.NewBuffer()
	}
	if opts.Backup == nil || opts.NoBackup {
		opts.Backup = backup.Disabled{}
	}
	if opts.Runner == nil {
		opts.Runner = runner.New()
	}
	if opts.Prompter == nil {
		opts.Prompter = TerminalPrompter{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, zerolog.InfoLevel)
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	if opts.MaxTimeout <= 0 {
		opts.MaxTimeout = 300 * time.Second
	}
	return &Executor{opts: opts, stats: NewStats()}
}

// Report returns the run's report buffer.
func (e *Executor) Report() *report.Buffer {
	return e.opts.Report
}

// Execute runs every directive in document order and returns the run's
// statistics. A handler failure is logged, counted, and execution moves
// on to the next directive.
func (e *Executor) Execute(ctx context.Context, program *ast.Program) *Stats {
	for _, directive := range program.Directives {
		if err := e.executeOne(ctx, directive); err != nil {
			line, _ := directive.Pos()
			e.opts.Logger.Errorf("error executing directive at line %d: %v", line, err)
			if e.opts.Verbose {
				zerolog.Ctx(ctx).Error().Err(err).Int("line", line).Msg("directive failed")
			}
			e.stats.Failed++
		}
	}
	return e.stats
}

// executeOne dispatches a single directive behind a fault boundary. The
// variant set is sealed, so the type switch is exhaustive by construction.
func (e *Executor) executeOne(ctx context.Context, directive ast.Directive) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("unexpected panic in directive handler: %v", r)
		}
	}()

	switch d := directive.(type) {
	case ast.Create:
		return e.executeCreate(ctx, d)
	case ast.Delete:
		return e.executeDelete(ctx, d)
	case ast.Move:
		return e.executeMove(ctx, d)
	case ast.Read:
		return e.executeRead(ctx, d)
	case ast.Tree:
		return e.executeTree(ctx, d)
	case ast.OverwriteFile:
		return e.executeOverwrite(ctx, d)
	case ast.SearchAndReplace:
		return e.executeSearchReplace(ctx, d)
	case ast.Find:
		return e.executeFind(ctx, d)
	case ast.Run:
		return e.executeRun(ctx, d)
	}
	return nil
}

// Apply reads, parses, and executes one document. A lex or parse failure
// discards the whole document: the returned error carries the position and
// zero directives have executed.
func Apply(ctx context.Context, documentPath string, opts Options) (*Stats, *report.Buffer, error) {
	source, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, nil, errors.Errorf("reading document: %w", err)
	}

	program, err := parser.Parse(string(source))
	if err != nil {
		return nil, nil, errors.Errorf("parsing %s: %w", documentPath, err)
	}
	zerolog.Ctx(ctx).Debug().
		Str("document", documentPath).
		Int("directives", len(program.Directives)).
		Msg("document parsed")

	executor := New(opts)
	stats := executor.Execute(ctx, program)
	return stats, executor.Report(), nil
}
