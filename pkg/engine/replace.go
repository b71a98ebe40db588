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
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/kifdiff/pkg/ast"
	"github.com/walteh/kifdiff/pkg/log"
)

// similarityThreshold is the minimum Levenshtein similarity for a chunk to
// be reported as a near-miss when a search block fails to match.
const similarityThreshold = 0.6

func (e *Executor) executeSearchReplace(ctx context.Context, d ast.SearchAndReplace) error {
	e.opts.Logger.Infof("[Line %d] SEARCH_AND_REPLACE: Modifying file '%s'...", d.Line, d.Path)

	raw, err := os.ReadFile(d.Path)
	if err != nil {
		e.opts.Logger.Errorf("ERROR: Could not read file '%s'. Reason: %v", d.Path, err)
		e.stats.Failed++
		return nil
	}

	replaceAll := d.Params.Bool("replace_all", false)
	count := d.Params.Int("count", 1)
	ignoreWS := d.Params.Bool("ignore_whitespace", false)
	useRegex := d.Params.Bool("regex", false)

	// Blocks chain: each one rewrites the in-memory content the previous
	// block produced. Nothing touches the file until every block matched.
	content := string(raw)
	totalReplacements := 0
	for i, block := range d.Blocks {
		updated, n, ok := applyBlock(content, block, replaceAll, count, ignoreWS, useRegex)
		if !ok {
			e.opts.Logger.Errorf("ERROR: Search text for block %d not found in '%s'.", i+1, d.Path)
			e.reportNoMatch(d.Path, content, block.Before)
			e.stats.Failed++
			return nil
		}
		content = updated
		totalReplacements += n
	}

	if e.opts.DryRun {
		e.opts.Logger.Warningf("DRY RUN: Would make %d replacement(s) in '%s' (no changes made)", totalReplacements, d.Path)
		e.stats.Skipped++
		return nil
	}

	if e.opts.Interactive {
		e.previewChange(d.Path, string(raw), content)
		if !e.opts.Prompter.Confirm(fmt.Sprintf("Apply %d replacement(s) to '%s'?", totalReplacements, d.Path)) {
			e.opts.Logger.Warning("Skipped by user.")
			e.stats.Skipped++
			return nil
		}
	}

	e.backupIfFile(ctx, d.Path)

	if err := os.WriteFile(d.Path, []byte(content), 0644); err != nil {
		e.opts.Logger.Errorf("ERROR: Could not write to file '%s'. Reason: %v", d.Path, err)
		e.stats.Failed++
		return nil
	}

	e.opts.Logger.LogDirective(ctx, log.DirectiveOperation{Line: d.Line, Name: "SEARCH_AND_REPLACE", Target: d.Path, Status: "modified"})
	e.stats.Modified++
	return nil
}

// applyBlock performs one before/after substitution against content and
// returns the rewritten text, the replacement count, and whether the search
// text matched at all.
func applyBlock(content string, block ast.BeforeAfterBlock, replaceAll bool, count int, ignoreWS, useRegex bool) (string, int, bool) {
	if useRegex {
		updated, n, ok := applyRegexBlock(content, block.Before, block.After, replaceAll, count)
		if !ok && ignoreWS {
			// Retry the match check against trailing-whitespace-normalized
			// text. As in the literal path, a match found only there counts
			// as matched with zero substitutions; the original bytes stay.
			if _, _, normOK := applyRegexBlock(normalizeWhitespace(content),
				normalizeWhitespace(block.Before), block.After, replaceAll, count); normOK {
				return content, 0, true
			}
		}
		return updated, n, ok
	}

	search, haystack := block.Before, content
	if ignoreWS {
		// Trailing per-line whitespace is ignored for the match check only;
		// the substitution still runs against the original bytes.
		search = normalizeWhitespace(search)
		haystack = normalizeWhitespace(content)
	}
	if !strings.Contains(haystack, search) {
		return content, 0, false
	}

	if replaceAll {
		n := strings.Count(content, block.Before)
		return strings.ReplaceAll(content, block.Before, block.After), n, true
	}
	// The normalized check above already established the match; a zero
	// substitution count here just means the difference was trailing
	// whitespace.
	updated, n, _ := replaceLiteralCount(content, block.Before, block.After, count)
	return updated, n, true
}

// replaceLiteralCount replaces up to count left-to-right occurrences of
// search in content.
func replaceLiteralCount(content, search, after string, count int) (string, int, bool) {
	if count <= 0 {
		count = 1
	}
	var sb strings.Builder
	replaced := 0
	rest := content
	for replaced < count {
		idx := strings.Index(rest, search)
		if idx < 0 {
			break
		}
		sb.WriteString(rest[:idx])
		sb.WriteString(after)
		rest = rest[idx+len(search):]
		replaced++
	}
	sb.WriteString(rest)
	if replaced == 0 {
		return content, 0, false
	}
	return sb.String(), replaced, true
}

// applyRegexBlock treats before as a multiline dot-all pattern. The after
// text may reference capture groups with $1-style templates.
func applyRegexBlock(content, before, after string, replaceAll bool, count int) (string, int, bool) {
	re, err := regexp.Compile("(?ms)" + before)
	if err != nil {
		return content, 0, false
	}
	if !re.MatchString(content) {
		return content, 0, false
	}

	if replaceAll {
		n := len(re.FindAllStringIndex(content, -1))
		return re.ReplaceAllString(content, after), n, true
	}

	if count <= 0 {
		count = 1
	}
	var sb strings.Builder
	replaced, pos := 0, 0
	for replaced < count {
		loc := re.FindStringSubmatchIndex(content[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		sb.WriteString(content[pos:start])
		sb.Write(re.ExpandString(nil, after, content, offsetIndex(loc, pos)))
		if end == start {
			// Zero-width match: emit one byte to guarantee progress.
			if end < len(content) {
				sb.WriteByte(content[end])
				end++
			} else {
				pos = end
				replaced++
				break
			}
		}
		pos = end
		replaced++
	}
	sb.WriteString(content[pos:])
	return sb.String(), replaced, true
}

// offsetIndex shifts a submatch index slice by base so ExpandString can
// resolve captures against the full content string.
func offsetIndex(loc []int, base int) []int {
	out := make([]int, len(loc))
	for i, v := range loc {
		if v < 0 {
			out[i] = v
			continue
		}
		out[i] = v + base
	}
	return out
}

// normalizeWhitespace strips trailing whitespace from every line, so that
// invisible trailing-space differences do not defeat a match.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// similarChunk is one near-miss candidate from the fuzzy scan.
type similarChunk struct {
	line  int
	score float64
	text  string
}

// reportNoMatch logs diagnostics for a search block that matched nothing:
// the closest chunks by edit distance, plus any lines sharing the search
// text's first-line prefix.
func (e *Executor) reportNoMatch(path, content, search string) {
	chunks := findSimilar(content, search)
	if len(chunks) > 0 {
		e.opts.Logger.Warning("Search text not found. Closest matches:")
		for _, c := range chunks {
			preview := c.text
			if idx := strings.IndexByte(preview, '\n'); idx >= 0 {
				preview = preview[:idx]
			}
			e.opts.Logger.Warningf("  line %d (%.0f%% similar): %s", c.line, c.score*100, preview)
		}
	}

	firstLine := firstSignificantLine(search)
	if len(firstLine) > 10 {
		prefix := firstLine
		if len(prefix) > 20 {
			prefix = prefix[:20]
		}
		for i, line := range strings.Split(content, "\n") {
			if strings.Contains(line, prefix) {
				e.opts.Logger.Warningf("  line %d in '%s': %s", i+1, path, line)
			}
		}
	}
}

// firstSignificantLine returns the first non-blank line of s, trimmed.
func firstSignificantLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// findSimilar slides a window the size of the search text across content and
// returns the top three chunks above the similarity threshold.
func findSimilar(content, search string) []similarChunk {
	window := len(search)
	if window == 0 || len(content) == 0 {
		return nil
	}
	step := window / 4
	if step < 1 {
		step = 1
	}

	var candidates []similarChunk
	for pos := 0; pos < len(content); pos += step {
		end := pos + window
		if end > len(content) {
			end = len(content)
		}
		chunk := content[pos:end]
		score := levenshtein.Similarity(chunk, search, nil)
		if score > similarityThreshold {
			candidates = append(candidates, similarChunk{
				line:  1 + strings.Count(content[:pos], "\n"),
				score: score,
				text:  chunk,
			})
		}
		if end == len(content) {
			break
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	return candidates
}

// previewChange prints a short colored diff of the pending modification so
// the interactive prompt is an informed decision.
func (e *Executor) previewChange(path, before, after string) {
	start, endBefore, endAfter := changeBounds(before, after)

	// Show a bounded window around the first change rather than the whole
	// file.
	lo := start - 100
	if lo < 0 {
		lo = 0
	}
	hiBefore := endBefore + 100
	if hiBefore > len(before) {
		hiBefore = len(before)
	}
	hiAfter := endAfter + 100
	if hiAfter > len(after) {
		hiAfter = len(after)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before[lo:hiBefore], after[lo:hiAfter], false)
	dmp.DiffCleanupSemantic(diffs)

	e.opts.Logger.Infof("Pending change to '%s':", path)
	e.opts.Logger.Info(dmp.DiffPrettyText(diffs))
}

// changeBounds locates the first and last differing byte offsets between
// two versions of a file.
func changeBounds(before, after string) (start, endBefore, endAfter int) {
	for start < len(before) && start < len(after) && before[start] == after[start] {
		start++
	}
	endBefore, endAfter = len(before), len(after)
	for endBefore > start && endAfter > start && before[endBefore-1] == after[endAfter-1] {
		endBefore--
		endAfter--
	}
	return start, endBefore, endAfter
}
