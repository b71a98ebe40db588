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

package report

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	t.Run("appendf_frames_the_block", func(t *testing.T) {
		buf := NewBuffer()
		buf.Appendf("FILE: a.txt", "contents here")

		out := buf.String()
		assert.Equal(t, "===== FILE: a.txt =====\ncontents here\n\n", out)
	})

	t.Run("blocks_keep_insertion_order", func(t *testing.T) {
		buf := NewBuffer()
		buf.Appendf("first", "1")
		buf.Appendf("second", "2")

		out := buf.String()
		assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
		assert.Equal(t, 2, buf.Len())
	})

	t.Run("empty_buffer", func(t *testing.T) {
		buf := NewBuffer()
		assert.True(t, buf.Empty())
		assert.Empty(t, buf.String())
	})

	t.Run("write_to", func(t *testing.T) {
		buf := NewBuffer()
		buf.Appendf("banner", "body")

		var sb strings.Builder
		n, err := buf.WriteTo(&sb)
		require.NoError(t, err)
		assert.Equal(t, int64(sb.Len()), n)
		assert.Equal(t, buf.String(), sb.String())
	})

	t.Run("concurrent_appends_are_safe", func(t *testing.T) {
		buf := NewBuffer()
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				buf.Appendf("banner", "body")
			}()
		}
		wg.Wait()
		assert.Equal(t, 32, buf.Len())
	})
}
