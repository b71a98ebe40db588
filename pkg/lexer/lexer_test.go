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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kinds extracts the token kinds for compact comparisons.
func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		errContains string
		check       func(t *testing.T, tokens []Token)
	}{
		{
			name:  "simple_delete",
			input: "@KifDELETE path/to/file.txt\n",
			check: func(t *testing.T, tokens []Token) {
				require.Len(t, tokens, 5, "expected start, name, path, newline, eof")
				assert.Equal(t, KindDirectiveStart, tokens[0].Kind)
				assert.Equal(t, KindName, tokens[1].Kind)
				assert.Equal(t, "DELETE", tokens[1].Text)
				assert.Equal(t, KindPath, tokens[2].Kind)
				assert.Equal(t, "path/to/file.txt", tokens[2].Text)
				assert.Equal(t, KindNewline, tokens[3].Kind)
				assert.Equal(t, KindEOF, tokens[4].Kind)
			},
		},
		{
			name:  "space_between_sentinel_and_name",
			input: "@Kif DELETE file.txt\n",
			check: func(t *testing.T, tokens []Token) {
				assert.Equal(t, "DELETE", tokens[1].Text, "name should be read after spaces")
				assert.Equal(t, "file.txt", tokens[2].Text)
			},
		},
		{
			name:  "create_with_content",
			input: "@KifCREATE out.txt\nhello\nworld\n@KifEND_CREATE\n",
			check: func(t *testing.T, tokens []Token) {
				var content []Token
				for _, tok := range tokens {
					if tok.Kind == KindContent {
						content = append(content, tok)
					}
				}
				require.Len(t, content, 1, "content should be one token")
				assert.Equal(t, "hello\nworld\n", content[0].Text)
			},
		},
		{
			name: "sentinel_inside_content_is_literal",
			input: "@KifCREATE out.txt\nthe marker @Kif is not special here\n" +
				"@KifDELETE is content too since DELETE does not terminate\n@KifEND_CREATE\n",
			check: func(t *testing.T, tokens []Token) {
				var content string
				for _, tok := range tokens {
					if tok.Kind == KindContent {
						content = tok.Text
					}
				}
				assert.Contains(t, content, "@Kif is not special")
				assert.Contains(t, content, "@KifDELETE is content too")
			},
		},
		{
			name:  "params_with_mixed_values",
			input: `@KifTREE (depth=2, show_hidden=true, label="a b") some/dir` + "\n",
			check: func(t *testing.T, tokens []Token) {
				var idents, values []string
				for _, tok := range tokens {
					switch tok.Kind {
					case KindIdent:
						idents = append(idents, tok.Text)
					case KindNumber, KindString:
						values = append(values, tok.Text)
					}
				}
				assert.Contains(t, idents, "depth")
				assert.Contains(t, idents, "show_hidden")
				assert.Contains(t, idents, "true", "bool values lex as identifiers")
				assert.Contains(t, values, "2")
				assert.Contains(t, values, "a b")
			},
		},
		{
			name:  "string_escapes",
			input: `@KifRUN (note="line1\nline2\t\"quoted\"") echo hi` + "\n",
			check: func(t *testing.T, tokens []Token) {
				var str string
				for _, tok := range tokens {
					if tok.Kind == KindString {
						str = tok.Text
					}
				}
				assert.Equal(t, "line1\nline2\t\"quoted\"", str)
			},
		},
		{
			name:  "comments_skipped_outside_content",
			input: "# a comment\n@KifDELETE file.txt\n# another\n",
			check: func(t *testing.T, tokens []Token) {
				assert.Equal(t, "DELETE", tokens[1].Text)
				for _, tok := range tokens {
					assert.NotContains(t, tok.Text, "comment")
				}
			},
		},
		{
			name:  "hash_kept_inside_content",
			input: "@KifCREATE out.py\n# python comment\n@KifEND_CREATE\n",
			check: func(t *testing.T, tokens []Token) {
				var content string
				for _, tok := range tokens {
					if tok.Kind == KindContent {
						content = tok.Text
					}
				}
				assert.Equal(t, "# python comment\n", content)
			},
		},
		{
			name:        "unknown_directive",
			input:       "@KifEXPLODE file.txt\n",
			wantErr:     true,
			errContains: "unknown directive",
		},
		{
			name:        "unterminated_string",
			input:       `@KifRUN (note="oops) echo hi` + "\n",
			wantErr:     true,
			errContains: "unterminated string",
		},
		{
			name:        "missing_equals_in_params",
			input:       "@KifTREE (depth 2) dir\n",
			wantErr:     true,
			errContains: "expected '='",
		},
		{
			name:        "missing_closing_paren",
			input:       "@KifTREE (depth=2 dir\n",
			wantErr:     true,
			errContains: "closing parenthesis",
		},
		{
			name:        "unclosed_params_at_end_of_line",
			input:       "@KifTREE (depth=2\nsome/dir\n",
			wantErr:     true,
			errContains: "closing parenthesis",
		},
		{
			name:  "empty_input",
			input: "",
			check: func(t *testing.T, tokens []Token) {
				require.Len(t, tokens, 1)
				assert.Equal(t, KindEOF, tokens[0].Kind)
			},
		},
		{
			name:  "positions_are_tracked",
			input: "\n\n@KifDELETE file.txt\n",
			check: func(t *testing.T, tokens []Token) {
				assert.Equal(t, 3, tokens[0].Line, "directive starts on line 3")
				assert.Equal(t, 1, tokens[0].Column)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.input).Tokenize()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, tokens)
			assert.Equal(t, KindEOF, tokens[len(tokens)-1].Kind, "stream must end with EOF")
			if tt.check != nil {
				tt.check(t, tokens)
			}
		})
	}
}

func TestTokenize_SearchAndReplaceBlocks(t *testing.T) {
	input := "@KifSEARCH_AND_REPLACE target.go\n" +
		"@KifBEFORE\nold text\n@KifEND_BEFORE\n" +
		"@KifAFTER\nnew text\n@KifEND_AFTER\n" +
		"@KifEND_SEARCH_AND_REPLACE\n"

	tokens, err := New(input).Tokenize()
	require.NoError(t, err)

	var names []string
	var contents []string
	for _, tok := range tokens {
		switch tok.Kind {
		case KindName:
			names = append(names, tok.Text)
		case KindContent:
			contents = append(contents, tok.Text)
		}
	}

	assert.Equal(t, []string{
		"SEARCH_AND_REPLACE", "BEFORE", "END_BEFORE",
		"AFTER", "END_AFTER", "END_SEARCH_AND_REPLACE",
	}, names)
	assert.Equal(t, []string{"old text\n", "new text\n"}, contents)
}

func TestTokenize_ContentEndingAtEOF(t *testing.T) {
	// Missing END marker: the content is still flushed so the parser can
	// report the real problem with a position.
	tokens, err := New("@KifCREATE out.txt\ndangling").Tokenize()
	require.NoError(t, err)
	assert.Contains(t, kinds(tokens), KindContent)
}
