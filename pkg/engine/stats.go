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
	"fmt"
	"strings"
)

// 📊 Stats counts directive outcomes for one run. It is scoped to a single
// document and mutated only by the executing goroutine.
type Stats struct {
	Created  int
	Deleted  int
	Modified int
	Failed   int
	Skipped  int

	// ReadPaths and TreePaths list the targets successfully rendered into
	// the report buffer; ErrorPaths lists the ones that errored.
	ReadPaths  []string
	TreePaths  []string
	ErrorPaths []string
}

// NewStats returns zeroed statistics.
func NewStats() *Stats {
	return &Stats{}
}

// Clean reports whether nothing failed.
func (s *Stats) Clean() bool {
	return s.Failed == 0
}

// Summary renders the end-of-run summary block.
func (s *Stats) Summary() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&sb, "Files created:  %d\n", s.Created)
	fmt.Fprintf(&sb, "Files deleted:  %d\n", s.Deleted)
	fmt.Fprintf(&sb, "Files modified: %d\n", s.Modified)
	fmt.Fprintf(&sb, "Files skipped:  %d\n", s.Skipped)
	if s.Failed > 0 {
		fmt.Fprintf(&sb, "Operations failed: %d\n", s.Failed)
	}
	sb.WriteString(strings.Repeat("=", 50))
	return sb.String()
}
