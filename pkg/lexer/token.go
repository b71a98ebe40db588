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

import "fmt"

// 🏷️ Kind classifies a token. The set is closed: the parser matches on Kind
// plus, for KindName, the directive word in Text.
type Kind int

const (
	KindDirectiveStart Kind = iota // the @Kif sentinel
	KindName                       // directive or marker name (CREATE, END_BEFORE, ...)
	KindLParen
	KindRParen
	KindComma
	KindEquals
	KindIdent
	KindNumber
	KindString
	KindPath    // rest-of-line argument after a directive name
	KindContent // raw body text collected between markers
	KindNewline
	KindEOF
)

// String returns the kind's name for error messages.
func (k Kind) String() string {
	switch k {
	case KindDirectiveStart:
		return "DIRECTIVE_START"
	case KindName:
		return "NAME"
	case KindLParen:
		return "LPAREN"
	case KindRParen:
		return "RPAREN"
	case KindComma:
		return "COMMA"
	case KindEquals:
		return "EQUALS"
	case KindIdent:
		return "IDENTIFIER"
	case KindNumber:
		return "NUMBER"
	case KindString:
		return "STRING"
	case KindPath:
		return "PATH"
	case KindContent:
		return "CONTENT"
	case KindNewline:
		return "NEWLINE"
	case KindEOF:
		return "EOF"
	default:
		return fmt.Sprintf("KIND(%d)", int(k))
	}
}

// 🎫 Token is one lexical unit with its source position. Tokens are produced
// once and consumed strictly left to right.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

// String implements fmt.Stringer for debug logging.
func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, L%d:%d)", t.Kind, t.Text, t.Line, t.Column)
}

// Directive and marker names recognized after the sentinel. Anything else
// is a lex failure.
const (
	NameCreate              = "CREATE"
	NameDelete              = "DELETE"
	NameMove                = "MOVE"
	NameRead                = "READ"
	NameTree                = "TREE"
	NameOverwriteFile       = "OVERWRITE_FILE"
	NameSearchAndReplace    = "SEARCH_AND_REPLACE"
	NameFind                = "FIND"
	NameRun                 = "RUN"
	NameBefore              = "BEFORE"
	NameAfter               = "AFTER"
	NameEndBefore           = "END_BEFORE"
	NameEndAfter            = "END_AFTER"
	NameEndCreate           = "END_CREATE"
	NameEndOverwriteFile    = "END_OVERWRITE_FILE"
	NameEndSearchAndReplace = "END_SEARCH_AND_REPLACE"
)

// knownNames is the closed directive vocabulary.
var knownNames = map[string]bool{
	NameCreate:              true,
	NameDelete:              true,
	NameMove:                true,
	NameRead:                true,
	NameTree:                true,
	NameOverwriteFile:       true,
	NameSearchAndReplace:    true,
	NameFind:                true,
	NameRun:                 true,
	NameBefore:              true,
	NameAfter:               true,
	NameEndBefore:           true,
	NameEndAfter:            true,
	NameEndCreate:           true,
	NameEndOverwriteFile:    true,
	NameEndSearchAndReplace: true,
}

// contentOpeners are the names whose directive line is followed by raw
// content collection.
var contentOpeners = map[string]bool{
	NameCreate:           true,
	NameOverwriteFile:    true,
	NameSearchAndReplace: true,
	NameBefore:           true,
	NameAfter:            true,
}

// contentTerminators are the only names honored while collecting content;
// any other name after the sentinel is treated as ordinary content so that
// file bodies may contain the sentinel string itself.
var contentTerminators = map[string]bool{
	NameBefore:              true,
	NameAfter:               true,
	NameEndBefore:           true,
	NameEndAfter:            true,
	NameEndCreate:           true,
	NameEndOverwriteFile:    true,
	NameEndSearchAndReplace: true,
}

// endMarkers stop content collection outright.
var endMarkers = map[string]bool{
	NameEndBefore:           true,
	NameEndAfter:            true,
	NameEndCreate:           true,
	NameEndOverwriteFile:    true,
	NameEndSearchAndReplace: true,
}
