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

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/walteh/kifdiff/pkg/ast"
	"github.com/walteh/kifdiff/pkg/log"
	"github.com/walteh/kifdiff/pkg/runner"
)

func (e *Executor) executeRun(ctx context.Context, d ast.Run) error {
	e.opts.Logger.Infof("[Line %d] RUN: Executing command '%s'...", d.Line, d.Command)

	if e.opts.Policy != nil {
		if allowed, reason := e.opts.Policy.Check(d.Command); !allowed {
			e.opts.Report.Appendf("COMMAND DENIED",
				fmt.Sprintf("Command: %s\nReason: %s", d.Command, reason))
			e.opts.Logger.Errorf("ERROR: Command denied by policy: %s", reason)
			e.stats.Failed++
			return nil
		}
	}

	timeout := e.opts.DefaultTimeout
	if t := d.Params.Int("timeout", 0); t > 0 {
		timeout = time.Duration(t) * time.Second
		if timeout > e.opts.MaxTimeout {
			timeout = e.opts.MaxTimeout
		}
	}
	shell := d.Params.Bool("shell", true)
	cwd := d.Params.String("cwd", "")

	if e.opts.DryRun {
		e.opts.Logger.Warning("DRY RUN: Would execute command (no changes made)")
		e.opts.Report.Appendf("COMMAND (DRY RUN)",
			fmt.Sprintf("Command: %s\nWorking Directory: %s\nStatus: not executed", d.Command, displayDir(cwd)))
		e.stats.Skipped++
		return nil
	}

	if e.opts.Interactive && !e.opts.Prompter.Confirm(fmt.Sprintf("Execute command '%s'?", d.Command)) {
		e.opts.Logger.Warning("Skipped by user.")
		e.stats.Skipped++
		return nil
	}

	result, err := e.opts.Runner.Run(ctx, d.Command, runner.Options{
		Timeout: timeout,
		Shell:   shell,
		Dir:     cwd,
	})
	if err != nil {
		e.opts.Report.Appendf("COMMAND ERROR",
			fmt.Sprintf("Command: %s\nReason: %v", d.Command, err))
		e.opts.Logger.Errorf("ERROR: Could not execute command. Reason: %v", err)
		e.stats.Failed++
		return nil
	}

	e.opts.Report.Appendf("COMMAND OUTPUT", formatRunResult(result))

	if result.Succeeded() {
		e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "RUN", Target: d.Command, Status: "modified"})
		e.stats.Modified++
	} else {
		if result.TimedOut {
			e.opts.Logger.Errorf("ERROR: Command timed out after %s", timeout)
		} else {
			e.opts.Logger.Errorf("ERROR: Command exited with status %d", result.ExitCode)
		}
		e.stats.Failed++
	}
	return nil
}

func displayDir(cwd string) string {
	if cwd == "" {
		return "."
	}
	return cwd
}

// formatRunResult renders one command execution as a report block body.
func formatRunResult(r runner.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Command: %s\n", r.Command)
	fmt.Fprintf(&sb, "Working Directory: %s\n", r.Dir)
	if r.TimedOut {
		sb.WriteString("Status: TIMED OUT\n")
	} else {
		fmt.Fprintf(&sb, "Status: exit code %d\n", r.ExitCode)
	}
	if out := strings.TrimRight(r.Stdout, "\n"); out != "" {
		sb.WriteString("Output:\n" + out + "\n")
	}
	if errOut := strings.TrimRight(r.Stderr, "\n"); errOut != "" {
		sb.WriteString("Errors:\n" + errOut + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
