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

// Package report collects the ordered text blocks a run produces — file
// contents, directory trees, command output, error banners — for delivery
// at run end.
package report

import (
	"io"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 📋 Buffer is an ordered, append-only collection of report blocks. The
// engine mutates it from a single goroutine; the mutex keeps it safe for
// an async multi-document caller that inspects buffers while others run.
type Buffer struct {
	mu     sync.Mutex
	blocks []string
}

// NewBuffer returns an empty report buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds one formatted block to the buffer.
func (b *Buffer) Append(block string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = append(b.blocks, block)
}

// Appendf adds one formatted block built from a banner and body, matching
// the `===== BANNER =====` framing used across directives.
func (b *Buffer) Appendf(banner, body string) {
	b.Append("===== " + banner + " =====\n" + body + "\n\n")
}

// Len returns the number of blocks collected so far.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocks)
}

// Empty reports whether nothing has been collected.
func (b *Buffer) Empty() bool {
	return b.Len() == 0
}

// String joins all blocks in append order.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.blocks, "")
}

// WriteTo flushes the buffer to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, b.String())
	if err != nil {
		return int64(n), errors.Errorf("writing report: %w", err)
	}
	return int64(n), nil
}
