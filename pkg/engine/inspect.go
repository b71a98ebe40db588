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
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/kifdiff/pkg/ast"
	"github.com/walteh/kifdiff/pkg/log"
)

func (e *Executor) executeRead(ctx context.Context, d ast.Read) error {
	e.opts.Logger.Infof("[Line %d] READ: Reading file '%s'...", d.Line, d.Path)

	content, err := os.ReadFile(d.Path)
	if err != nil {
		// A failed read still lands in the report so the rendered output
		// shows the gap where the file should have been.
		e.opts.Report.Appendf(fmt.Sprintf("READ ERROR: %s", d.Path),
			fmt.Sprintf("Could not read file. Reason: %v", err))
		e.opts.Logger.Errorf("ERROR: Could not read file '%s'. Reason: %v", d.Path, err)
		e.stats.ErrorPaths = append(e.stats.ErrorPaths, d.Path)
		e.stats.Failed++
		return nil
	}

	e.opts.Report.Appendf(fmt.Sprintf("FILE: %s", d.Path), string(content))
	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "READ", Target: d.Path, Status: "modified"})
	e.stats.ReadPaths = append(e.stats.ReadPaths, d.Path)
	e.stats.Modified++
	return nil
}

func (e *Executor) executeTree(ctx context.Context, d ast.Tree) error {
	e.opts.Logger.Infof("[Line %d] TREE: Rendering directory tree for '%s'...", d.Line, d.Path)

	info, err := os.Stat(d.Path)
	if err != nil || !info.IsDir() {
		reason := "not a directory"
		if err != nil {
			reason = err.Error()
		}
		e.opts.Report.Appendf(fmt.Sprintf("TREE ERROR: %s", d.Path),
			fmt.Sprintf("Could not render tree. Reason: %s", reason))
		e.opts.Logger.Errorf("ERROR: Could not render tree for '%s'. Reason: %s", d.Path, reason)
		e.stats.ErrorPaths = append(e.stats.ErrorPaths, d.Path)
		e.stats.Failed++
		return nil
	}

	if e.opts.DryRun {
		e.opts.Logger.Warning("DRY RUN: Would render directory tree (no changes made)")
		e.stats.Skipped++
		return nil
	}

	depth := d.Params.Int("depth", -1)
	showHidden := d.Params.Bool("show_hidden", false)
	includeFiles := d.Params.Bool("include_files", true)

	var sb strings.Builder
	sb.WriteString(d.Path + "\n")
	renderTree(&sb, d.Path, "", depth, showHidden, includeFiles)

	e.opts.Report.Appendf(fmt.Sprintf("DIRECTORY TREE: %s", d.Path), strings.TrimRight(sb.String(), "\n"))
	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "TREE", Target: d.Path, Status: "modified"})
	e.stats.TreePaths = append(e.stats.TreePaths, d.Path)
	return nil
}

// renderTree walks dir recursively, appending one line per entry using the
// classic box-drawing layout. depth < 0 means unlimited.
func renderTree(sb *strings.Builder, dir, prefix string, depth int, showHidden, includeFiles bool) {
	if depth == 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		sb.WriteString(prefix + "└── [error: " + err.Error() + "]\n")
		return
	}

	var visible []fs.DirEntry
	for _, entry := range entries {
		if !showHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !includeFiles && !entry.IsDir() {
			continue
		}
		visible = append(visible, entry)
	}
	sort.Slice(visible, func(i, j int) bool {
		// Directories group before files, each alphabetically.
		if visible[i].IsDir() != visible[j].IsDir() {
			return visible[i].IsDir()
		}
		return visible[i].Name() < visible[j].Name()
	})

	for i, entry := range visible {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(visible)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		sb.WriteString(prefix + connector + name + "\n")
		if entry.IsDir() {
			renderTree(sb, filepath.Join(dir, entry.Name()), childPrefix, depth-1, showHidden, includeFiles)
		}
	}
}

func (e *Executor) executeFind(ctx context.Context, d ast.Find) error {
	e.opts.Logger.Infof("[Line %d] FIND: Searching under '%s'...", d.Line, d.Path)

	info, err := os.Stat(d.Path)
	if err != nil || !info.IsDir() {
		reason := "not a directory"
		if err != nil {
			reason = err.Error()
		}
		e.opts.Report.Appendf(fmt.Sprintf("FIND ERROR: %s", d.Path),
			fmt.Sprintf("Could not search directory. Reason: %s", reason))
		e.opts.Logger.Errorf("ERROR: Could not search '%s'. Reason: %s", d.Path, reason)
		e.stats.ErrorPaths = append(e.stats.ErrorPaths, d.Path)
		e.stats.Failed++
		return nil
	}

	if e.opts.DryRun {
		e.opts.Logger.Warning("DRY RUN: Would search directory (no changes made)")
		e.stats.Skipped++
		return nil
	}

	pattern := d.Params.String("match_pattern", d.Params.String("pattern", ".*"))
	include := d.Params.String("include", "")
	exclude := d.Params.String("exclude", "")
	glob := d.Params.String("glob", "")
	depth := d.Params.Int("depth", -1)

	matcher, err := regexp.Compile(pattern)
	if err != nil {
		e.opts.Logger.Errorf("ERROR: Invalid pattern '%s'. Reason: %v", pattern, err)
		e.stats.Failed++
		return nil
	}
	var includeRe, excludeRe *regexp.Regexp
	if include != "" {
		if includeRe, err = regexp.Compile(include); err != nil {
			e.opts.Logger.Errorf("ERROR: Invalid include pattern '%s'. Reason: %v", include, err)
			e.stats.Failed++
			return nil
		}
	}
	if exclude != "" {
		if excludeRe, err = regexp.Compile(exclude); err != nil {
			e.opts.Logger.Errorf("ERROR: Invalid exclude pattern '%s'. Reason: %v", exclude, err)
			e.stats.Failed++
			return nil
		}
	}

	var matches []string
	walkErr := filepath.WalkDir(d.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are silently skipped
		}
		rel, relErr := filepath.Rel(d.Path, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			if depth >= 0 && strings.Count(rel, string(filepath.Separator))+1 > depth {
				return filepath.SkipDir
			}
			return nil
		}
		if !matcher.MatchString(entry.Name()) {
			return nil
		}
		if includeRe != nil && !includeRe.MatchString(rel) {
			return nil
		}
		if excludeRe != nil && excludeRe.MatchString(rel) {
			return nil
		}
		if glob != "" {
			ok, globErr := doublestar.Match(glob, filepath.ToSlash(rel))
			if globErr != nil || !ok {
				return nil
			}
		}
		matches = append(matches, rel)
		return nil
	})
	if walkErr != nil {
		e.opts.Logger.Errorf("ERROR: Could not search '%s'. Reason: %v", d.Path, walkErr)
		e.stats.Failed++
		return nil
	}

	sort.Strings(matches)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pattern: %s\n", pattern)
	if glob != "" {
		fmt.Fprintf(&sb, "Glob: %s\n", glob)
	}
	fmt.Fprintf(&sb, "Matches: %d\n", len(matches))
	for _, m := range matches {
		sb.WriteString(m + "\n")
	}

	e.opts.Report.Appendf(fmt.Sprintf("FIND RESULTS: %s", d.Path), strings.TrimRight(sb.String(), "\n"))
	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "FIND", Target: d.Path, Status: "modified"})
	e.stats.TreePaths = append(e.stats.TreePaths, d.Path)
	return nil
}
