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

// Package runner executes RUN directive commands as child processes. The
// timeout is a hard deadline: when it expires the process is killed and
// the result marked timed out. There is no cooperative cancellation.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🧾 Result captures every observable outcome of a command execution.
type Result struct {
	Command  string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Succeeded reports whether the command exited zero within its deadline.
func (r Result) Succeeded() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// ⚙️ Options tune one execution.
type Options struct {
	Timeout time.Duration // capped by the caller against the policy max
	Shell   bool          // run through `sh -c` so arguments and pipes work
	Dir     string        // working directory; empty means the current one
}

// 🏃 Runner executes commands with enforced deadlines.
type Runner struct{}

// New returns a Runner.
func New() *Runner {
	return &Runner{}
}

// Run executes command and blocks until it exits or the deadline kills it.
// A spawn failure is returned as an error; a non-zero exit or timeout is
// reported through the Result, not the error.
func (r *Runner) Run(ctx context.Context, command string, opts Options) (Result, error) {
	result := Result{Command: command}

	dir := opts.Dir
	if dir != "" {
		expanded, err := expandHome(dir)
		if err != nil {
			return result, err
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return result, errors.Errorf("resolving working directory: %w", err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return result, errors.Errorf("working directory does not exist: %s", abs)
		}
		dir = abs
	}
	result.Dir = dir

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if opts.Shell {
		cmd = exec.CommandContext(runCtx, "sh", "-c", command)
	} else {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return result, errors.New("empty command")
		}
		cmd = exec.CommandContext(runCtx, fields[0], fields[1:]...)
	}
	cmd.Dir = dir
	// Killing the direct child does not release the output pipes when it
	// left grandchildren behind; WaitDelay forces Wait to return shortly
	// after the deadline instead of blocking on orphaned writers.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Debug().
		Str("command", command).
		Str("dir", dir).
		Dur("timeout", opts.Timeout).
		Bool("shell", opts.Shell).
		Msg("executing command")

	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if errors.Is(err, exec.ErrWaitDelay) {
			// The child exited but an orphaned grandchild kept the pipes
			// open past the wait delay; the exit status is still valid.
			result.ExitCode = cmd.ProcessState.ExitCode()
			return result, nil
		}
		return result, errors.Errorf("spawning command: %w", err)
	}

	result.ExitCode = 0
	return result, nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
