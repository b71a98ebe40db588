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
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDirective(t *testing.T) {
	tests := []struct {
		name   string
		op     DirectiveOperation
		expect []string
	}{
		{
			name:   "created_file",
			op:     DirectiveOperation{Line: 3, Name: "CREATE", Target: "a.txt", Status: "created"},
			expect: []string{"[L3]", "CREATE", "a.txt"},
		},
		{
			name:   "failed_move",
			op:     DirectiveOperation{Line: 9, Name: "MOVE", Target: "x -> y", Status: "failed"},
			expect: []string{"[L9]", "MOVE", "x -> y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, zerolog.Disabled)
			logger.LogDirective(context.Background(), tt.op)

			out := buf.String()
			for _, want := range tt.expect {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.Disabled)

	logger.Header("changes.kif", ".kif_backups/session_x")
	assert.Contains(t, buf.String(), "changes.kif")
	assert.Contains(t, buf.String(), ".kif_backups/session_x")

	buf.Reset()
	logger.Header("changes.kif", "")
	assert.Contains(t, buf.String(), "backups: disabled")
}

func TestContext(t *testing.T) {
	logger := New(&bytes.Buffer{}, zerolog.Disabled)
	ctx := NewContext(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	assert.Panics(t, func() {
		FromContext(context.Background())
	})
}
