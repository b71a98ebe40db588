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
	"io"
	"os"
	"path/filepath"

	"github.com/walteh/kifdiff/pkg/ast"
	"github.com/walteh/kifdiff/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// ensureParentDirs creates every missing parent directory of path.
func ensureParentDirs(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}
	return nil
}

// backupIfFile captures a pre-image when path is a regular file. A backup
// failure is logged but does not block the mutation, matching the advisory
// nature of the safety net.
func (e *Executor) backupIfFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if _, err := e.opts.Backup.Backup(ctx, path); err != nil {
		e.opts.Logger.Warningf("could not create backup of '%s': %v", path, err)
	}
}

func (e *Executor) executeCreate(ctx context.Context, d ast.Create) error {
	e.opts.Logger.Infof("[Line %d] CREATE: Creating file '%s'...", d.Line, d.Path)

	if e.opts.DryRun {
		e.opts.Logger.Warning("DRY RUN: Would create file (no changes made)")
		e.stats.Skipped++
		return nil
	}

	if e.opts.Interactive && !e.opts.Prompter.Confirm(fmt.Sprintf("Create file '%s'?", d.Path)) {
		e.opts.Logger.Warning("Skipped by user.")
		e.stats.Skipped++
		return nil
	}

	if err := ensureParentDirs(d.Path); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not create file '%s'. Reason: %v", d.Path, err)
		e.stats.Failed++
		return nil
	}
	if err := os.WriteFile(d.Path, []byte(d.Content), 0644); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not create file '%s'. Reason: %v", d.Path, err)
		e.stats.Failed++
		return nil
	}

	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "CREATE", Target: d.Path, Status: "created"})
	e.stats.Created++
	return nil
}

func (e *Executor) executeOverwrite(ctx context.Context, d ast.OverwriteFile) error {
	e.opts.Logger.Infof("[Line %d] OVERWRITE_FILE: Overwriting file '%s'...", d.Line, d.Path)

	if e.opts.DryRun {
		e.opts.Logger.Warning("DRY RUN: Would overwrite file (no changes made)")
		e.stats.Skipped++
		return nil
	}

	if e.opts.Interactive && !e.opts.Prompter.Confirm(fmt.Sprintf("Overwrite file '%s'?", d.Path)) {
		e.opts.Logger.Warning("Skipped by user.")
		e.stats.Skipped++
		return nil
	}

	// The pre-image is the only rollback path, so capture it before the
	// write when the target already exists.
	e.backupIfFile(ctx, d.Path)

	if err := ensureParentDirs(d.Path); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not create parent directory for '%s'. Reason: %v", d.Path, err)
		e.stats.Failed++
		return nil
	}
	if err := os.WriteFile(d.Path, []byte(d.Content), 0644); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not write to file '%s'. Reason: %v", d.Path, err)
		e.stats.Failed++
		return nil
	}

	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "OVERWRITE_FILE", Target: d.Path, Status: "modified"})
	e.stats.Modified++
	return nil
}

func (e *Executor) executeDelete(ctx context.Context, d ast.Delete) error {
	e.opts.Logger.Infof("[Line %d] DELETE: Deleting file '%s'...", d.Line, d.Path)

	if _, err := os.Stat(d.Path); os.IsNotExist(err) {
		// A missing target is a skip, not a failure.
		e.opts.Logger.Warningf("WARNING: File '%s' not found. Skipping.", d.Path)
		e.stats.Skipped++
		return nil
	}

	if e.opts.DryRun {
		e.opts.Logger.Warning("DRY RUN: Would delete file (no changes made)")
		e.stats.Skipped++
		return nil
	}

	if e.opts.Interactive && !e.opts.Prompter.Confirm(fmt.Sprintf("Delete file '%s'?", d.Path)) {
		e.opts.Logger.Warning("Skipped by user.")
		e.stats.Skipped++
		return nil
	}

	e.backupIfFile(ctx, d.Path)

	if err := os.Remove(d.Path); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not delete file '%s'. Reason: %v", d.Path, err)
		e.stats.Failed++
		return nil
	}

	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "DELETE", Target: d.Path, Status: "deleted"})
	e.stats.Deleted++
	return nil
}

func (e *Executor) executeMove(ctx context.Context, d ast.Move) error {
	e.opts.Logger.Infof("[Line %d] MOVE: Moving '%s' to '%s'...", d.Line, d.Source, d.Dest)

	if _, err := os.Stat(d.Source); os.IsNotExist(err) {
		// Unlike DELETE, a missing source here is a failure: the caller
		// asked to relocate something that should exist.
		e.opts.Logger.Errorf("ERROR: Source '%s' not found. Skipping.", d.Source)
		e.stats.Failed++
		return nil
	}

	if e.opts.DryRun {
		e.opts.Logger.Warning("DRY RUN: Would move file/directory (no changes made)")
		e.stats.Skipped++
		return nil
	}

	if e.opts.Interactive && !e.opts.Prompter.Confirm(fmt.Sprintf("Move '%s' to '%s'?", d.Source, d.Dest)) {
		e.opts.Logger.Warning("Skipped by user.")
		e.stats.Skipped++
		return nil
	}

	e.backupIfFile(ctx, d.Source)

	if err := ensureParentDirs(d.Dest); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not move '%s' to '%s'. Reason: %v", d.Source, d.Dest, err)
		e.stats.Failed++
		return nil
	}
	if err := movePath(d.Source, d.Dest); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not move '%s' to '%s'. Reason: %v", d.Source, d.Dest, err)
		e.stats.Failed++
		return nil
	}

	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "MOVE", Target: d.Source + " -> " + d.Dest, Status: "modified"})
	e.stats.Modified++
	return nil
}

// movePath renames source to dest, falling back to copy-and-remove for
// regular files when the rename crosses filesystems.
func movePath(source, dest string) error {
	if err := os.Rename(source, dest); err == nil {
		return nil
	} else if info, statErr := os.Stat(source); statErr != nil || !info.Mode().IsRegular() {
		return errors.Errorf("renaming: %w", err)
	}

	in, err := os.Open(source)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Errorf("creating destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Errorf("copying content: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("flushing destination: %w", err)
	}
	if err := os.Remove(source); err != nil {
		return errors.Errorf("removing source: %w", err)
	}
	return nil
}
