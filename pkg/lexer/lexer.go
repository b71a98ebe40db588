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

// Package lexer tokenizes kifdiff documents. The scanner runs a two-mode
// state machine: directive-scan (the default) and content-collection,
// entered after a CREATE/OVERWRITE_FILE/SEARCH_AND_REPLACE header or a
// BEFORE/AFTER marker. In content mode the sentinel is only honored when
// the name following it is a block terminator, so file bodies may contain
// the literal sentinel string.
package lexer

import (
	"fmt"
	"strings"
)

// Sentinel is the fixed 4-character marker that opens every directive.
const Sentinel = "@Kif"

// ⚠️ Error is a lex failure with the position it occurred at. A lex failure
// aborts the whole document; there is no partial recovery.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// 🔤 Lexer scans one document into a flat token stream.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
	tokens []Token
}

// checkpoint is an immutable snapshot of the scanner cursor, used to peek
// past the sentinel in content mode and rewind when the following name is
// not a terminator.
type checkpoint struct {
	pos    int
	line   int
	column int
}

// New returns a lexer over input.
func New(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
	}
}

func (l *Lexer) save() checkpoint {
	return checkpoint{pos: l.pos, line: l.line, column: l.column}
}

func (l *Lexer) restore(cp checkpoint) {
	l.pos = cp.pos
	l.line = cp.line
	l.column = cp.column
}

func (l *Lexer) errorf(format string, args ...any) *Error {
	return &Error{Line: l.line, Column: l.column, Msg: fmt.Sprintf(format, args...)}
}

// peek returns the byte at the cursor plus offset, or 0 at end of input.
func (l *Lexer) peek(offset int) byte {
	p := l.pos + offset
	if p < len(l.input) {
		return l.input[p]
	}
	return 0
}

// advance consumes and returns one byte, tracking line and column.
func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) emit(kind Kind, text string, line, column int) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Line: line, Column: column})
}

// atSentinel reports whether the cursor sits on the @Kif marker.
func (l *Lexer) atSentinel() bool {
	return l.pos+len(Sentinel) <= len(l.input) && l.input[l.pos:l.pos+len(Sentinel)] == Sentinel
}

func (l *Lexer) skipSpace() {
	for {
		c := l.peek(0)
		if c == ' ' || c == '\t' || c == '\r' {
			l.advance()
			continue
		}
		return
	}
}

func (l *Lexer) readUntilNewline() string {
	var sb strings.Builder
	for l.pos < len(l.input) && l.peek(0) != '\n' {
		sb.WriteByte(l.advance())
	}
	return sb.String()
}

// readName consumes an uppercase-with-underscore directive name.
func (l *Lexer) readName() string {
	var sb strings.Builder
	for {
		c := l.peek(0)
		if (c >= 'A' && c <= 'Z') || c == '_' {
			sb.WriteByte(l.advance())
			continue
		}
		return sb.String()
	}
}

func (l *Lexer) readIdent() string {
	var sb strings.Builder
	for {
		c := l.peek(0)
		if isAlnum(c) || c == '_' {
			sb.WriteByte(l.advance())
			continue
		}
		return sb.String()
	}
}

func (l *Lexer) readNumber() string {
	var sb strings.Builder
	for isDigit(l.peek(0)) {
		sb.WriteByte(l.advance())
	}
	return sb.String()
}

// readString consumes a quoted string, resolving backslash escapes for
// \n \t \r \\ and the quote character. An unterminated string is a lex
// failure.
func (l *Lexer) readString(quote byte) (string, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.peek(0)
		switch {
		case c == quote:
			l.advance()
			return sb.String(), nil
		case c == '\\':
			l.advance()
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', quote:
				sb.WriteByte(esc)
			case 0:
				return "", l.errorf("unterminated string")
			default:
				// Unknown escapes keep their backslash so regex values like
				// "\d+" pass through unmangled.
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(l.advance())
		}
	}
	return "", l.errorf("unterminated string")
}

// scanParams tokenizes a parenthesized key=value list.
func (l *Lexer) scanParams() error {
	l.emit(KindLParen, "(", l.line, l.column)
	l.advance()
	l.skipSpace()

	for l.pos < len(l.input) && l.peek(0) != ')' {
		c := l.peek(0)
		if !isAlpha(c) && c != '_' {
			break
		}

		nameLine, nameCol := l.line, l.column
		name := l.readIdent()
		l.emit(KindIdent, name, nameLine, nameCol)
		l.skipSpace()

		if l.peek(0) != '=' {
			return l.errorf("expected '=' after parameter %q", name)
		}
		l.emit(KindEquals, "=", l.line, l.column)
		l.advance()
		l.skipSpace()

		valLine, valCol := l.line, l.column
		switch c := l.peek(0); {
		case c == '"' || c == '\'':
			val, err := l.readString(c)
			if err != nil {
				return err
			}
			l.emit(KindString, val, valLine, valCol)
		case isDigit(c):
			l.emit(KindNumber, l.readNumber(), valLine, valCol)
		case isAlpha(c):
			l.emit(KindIdent, l.readIdent(), valLine, valCol)
		default:
			return l.errorf("expected parameter value for %q", name)
		}
		l.skipSpace()

		// Only a comma continues the list; anything else ends it so an
		// unclosed list reports the missing parenthesis, not a bogus
		// parameter error.
		if l.peek(0) != ',' {
			break
		}
		l.emit(KindComma, ",", l.line, l.column)
		l.advance()
		l.skipSpace()
	}

	if l.peek(0) != ')' {
		return l.errorf("expected closing parenthesis")
	}
	l.emit(KindRParen, ")", l.line, l.column)
	l.advance()
	return nil
}

// scanDirectiveLine tokenizes everything after the sentinel on one line:
// the name, an optional parameter list, and the trimmed rest-of-line as a
// single path token when non-empty.
func (l *Lexer) scanDirectiveLine() (string, error) {
	nameLine, nameCol := l.line, l.column
	name := l.readName()
	if name == "" {
		return "", l.errorf("expected directive name after %s", Sentinel)
	}
	if !knownNames[name] {
		return "", &Error{Line: nameLine, Column: nameCol, Msg: fmt.Sprintf("unknown directive: %s", name)}
	}
	l.emit(KindName, name, nameLine, nameCol)

	l.skipSpace()
	if l.peek(0) == '(' {
		if err := l.scanParams(); err != nil {
			return "", err
		}
	}

	l.skipSpace()
	pathLine, pathCol := l.line, l.column
	rest := strings.TrimSpace(l.readUntilNewline())
	if rest != "" {
		l.emit(KindPath, rest, pathLine, pathCol)
	}
	return name, nil
}

// peekTerminator looks past the sentinel at the next directive name without
// consuming input, reporting whether it is a content terminator.
func (l *Lexer) peekTerminator() bool {
	cp := l.save()
	for range Sentinel {
		l.advance()
	}
	l.skipSpace()
	name := l.readName()
	l.restore(cp)
	return contentTerminators[name]
}

// skipComment consumes a # comment through end of line.
func (l *Lexer) skipComment() {
	for l.pos < len(l.input) && l.peek(0) != '\n' {
		l.advance()
	}
}

// Tokenize scans the whole document and returns the token stream,
// terminated by a single EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	inContent := false
	var content strings.Builder
	contentLine, contentCol := 0, 0

	flushContent := func() {
		if content.Len() > 0 {
			l.emit(KindContent, content.String(), contentLine, contentCol)
			content.Reset()
		}
		inContent = false
	}

	for l.pos < len(l.input) {
		if !inContent && l.peek(0) == '#' {
			l.skipComment()
			continue
		}

		if !l.atSentinel() {
			if inContent {
				content.WriteByte(l.advance())
				continue
			}
			// Outside directives only whitespace is meaningful; anything
			// else is silently dropped, matching the tolerant scan of the
			// directive-line grammar.
			l.advance()
			continue
		}

		if inContent {
			if !l.peekTerminator() {
				content.WriteByte(l.advance())
				continue
			}
			flushContent()
		}

		startLine, startCol := l.line, l.column
		for range Sentinel {
			l.advance()
		}
		l.emit(KindDirectiveStart, Sentinel, startLine, startCol)
		l.skipSpace()

		name, err := l.scanDirectiveLine()
		if err != nil {
			return nil, err
		}

		switch {
		case endMarkers[name]:
			inContent = false
		case contentOpeners[name]:
			inContent = true
			contentLine, contentCol = l.line, l.column
		}

		if l.peek(0) == '\n' {
			l.emit(KindNewline, "\n", l.line, l.column)
			l.advance()
			if inContent {
				contentLine, contentCol = l.line, l.column
			}
		}
	}

	flushContent()
	l.emit(KindEOF, "", l.line, l.column)
	return l.tokens, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
