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

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/kifdiff/pkg/ast"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		errContains string
		check       func(t *testing.T, program *ast.Program)
	}{
		{
			name:  "delete_directive",
			input: "@KifDELETE some/file.txt\n",
			check: func(t *testing.T, program *ast.Program) {
				require.Len(t, program.Directives, 1)
				d, ok := program.Directives[0].(ast.Delete)
				require.True(t, ok, "expected Delete, got %T", program.Directives[0])
				assert.Equal(t, "some/file.txt", d.Path)
				assert.Equal(t, 1, d.Line)
			},
		},
		{
			name:  "create_with_content",
			input: "@KifCREATE out.txt\nline one\nline two\n@KifEND_CREATE\n",
			check: func(t *testing.T, program *ast.Program) {
				require.Len(t, program.Directives, 1)
				d, ok := program.Directives[0].(ast.Create)
				require.True(t, ok)
				assert.Equal(t, "out.txt", d.Path)
				assert.Equal(t, "line one\nline two\n", d.Content)
			},
		},
		{
			name:  "move_splits_on_first_whitespace",
			input: "@KifMOVE old/path.txt new/dir/path with spaces.txt\n",
			check: func(t *testing.T, program *ast.Program) {
				d, ok := program.Directives[0].(ast.Move)
				require.True(t, ok)
				assert.Equal(t, "old/path.txt", d.Source)
				assert.Equal(t, "new/dir/path with spaces.txt", d.Dest, "destination keeps its internal spaces")
			},
		},
		{
			name:        "move_missing_destination",
			input:       "@KifMOVE only/one/path.txt\n",
			wantErr:     true,
			errContains: "source and destination",
		},
		{
			name:  "run_keeps_full_command_line",
			input: "@KifRUN (timeout=60) git status --short\n",
			check: func(t *testing.T, program *ast.Program) {
				d, ok := program.Directives[0].(ast.Run)
				require.True(t, ok)
				assert.Equal(t, "git status --short", d.Command)
				assert.Equal(t, 60, d.Params.Int("timeout", 0))
			},
		},
		{
			name:  "params_types",
			input: `@KifTREE (depth=3, show_hidden=true, mode=fast, label="x y") dir` + "\n",
			check: func(t *testing.T, program *ast.Program) {
				d, ok := program.Directives[0].(ast.Tree)
				require.True(t, ok)
				assert.Equal(t, 3, d.Params.Int("depth", 0))
				assert.True(t, d.Params.Bool("show_hidden", false))
				assert.Equal(t, "fast", d.Params.String("mode", ""))
				assert.Equal(t, "x y", d.Params.String("label", ""))
			},
		},
		{
			name: "search_and_replace_single_block",
			input: "@KifSEARCH_AND_REPLACE target.go\n" +
				"@KifBEFORE\nold\n@KifEND_BEFORE\n" +
				"@KifAFTER\nnew\n@KifEND_AFTER\n" +
				"@KifEND_SEARCH_AND_REPLACE\n",
			check: func(t *testing.T, program *ast.Program) {
				d, ok := program.Directives[0].(ast.SearchAndReplace)
				require.True(t, ok)
				assert.Equal(t, "target.go", d.Path)
				require.Len(t, d.Blocks, 1)
				assert.Equal(t, "old", d.Blocks[0].Before, "trailing newline stripped once")
				assert.Equal(t, "new", d.Blocks[0].After)
			},
		},
		{
			name: "search_and_replace_multiple_blocks_in_order",
			input: "@KifSEARCH_AND_REPLACE target.go\n" +
				"@KifBEFORE\nfirst\n@KifEND_BEFORE\n@KifAFTER\n1st\n@KifEND_AFTER\n" +
				"@KifBEFORE\nsecond\n@KifEND_BEFORE\n@KifAFTER\n2nd\n@KifEND_AFTER\n" +
				"@KifEND_SEARCH_AND_REPLACE\n",
			check: func(t *testing.T, program *ast.Program) {
				d, ok := program.Directives[0].(ast.SearchAndReplace)
				require.True(t, ok)
				require.Len(t, d.Blocks, 2)
				assert.Equal(t, "first", d.Blocks[0].Before)
				assert.Equal(t, "second", d.Blocks[1].Before)
			},
		},
		{
			name: "search_and_replace_without_blocks",
			input: "@KifSEARCH_AND_REPLACE target.go\n" +
				"@KifEND_SEARCH_AND_REPLACE\n",
			wantErr:     true,
			errContains: "at least one BEFORE/AFTER block",
		},
		{
			name:        "unterminated_create",
			input:       "@KifCREATE out.txt\nsome content\n",
			wantErr:     true,
			errContains: "unexpected EOF",
		},
		{
			name: "directive_inside_content_block_fails",
			input: "@KifSEARCH_AND_REPLACE t.go\n" +
				"@KifBEFORE\nx\n@KifEND_AFTER\n" +
				"@KifEND_SEARCH_AND_REPLACE\n",
			wantErr: true,
		},
		{
			name: "multiple_directives_in_document_order",
			input: "@KifCREATE a.txt\nA\n@KifEND_CREATE\n" +
				"@KifDELETE b.txt\n" +
				"@KifREAD c.txt\n",
			check: func(t *testing.T, program *ast.Program) {
				require.Len(t, program.Directives, 3)
				_, ok := program.Directives[0].(ast.Create)
				assert.True(t, ok)
				_, ok = program.Directives[1].(ast.Delete)
				assert.True(t, ok)
				_, ok = program.Directives[2].(ast.Read)
				assert.True(t, ok)
			},
		},
		{
			name:  "empty_document",
			input: "# nothing but comments\n\n",
			check: func(t *testing.T, program *ast.Program) {
				assert.Empty(t, program.Directives)
			},
		},
		{
			name:  "content_preserves_sentinel_text",
			input: "@KifCREATE doc.md\nuse @Kif to mark directives\n@KifEND_CREATE\n",
			check: func(t *testing.T, program *ast.Program) {
				d, ok := program.Directives[0].(ast.Create)
				require.True(t, ok)
				assert.Equal(t, "use @Kif to mark directives\n", d.Content)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				assert.Nil(t, program, "a parse failure must discard the whole document")
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, program)
			}
		})
	}
}

func TestParse_ErrorPositions(t *testing.T) {
	_, err := Parse("\n\n@KifMOVE lonely.txt\n")
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Line, "error should point at the offending line")
}
