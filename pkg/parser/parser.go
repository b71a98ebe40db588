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

// Package parser builds the AST from a token stream. It is a recursive
// descent parser with one token of lookahead, two at block boundaries. The
// parse contract is all or nothing: any unexpected token fails the whole
// document and zero directives execute.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/walteh/kifdiff/pkg/ast"
	"github.com/walteh/kifdiff/pkg/lexer"
)

// ⚠️ Error is a parse failure carrying the offending token's position.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// 🌳 Parser consumes a token stream produced by the lexer.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New returns a parser over tokens. The stream must end with an EOF token,
// which the lexer guarantees.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse tokenizes and parses source in one step.
func Parse(source string) (*ast.Program, error) {
	tokens, err := lexer.New(source).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(tokens).Parse()
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...any) *Error {
	return &Error{Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) current() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.tokens[len(p.tokens)-1]
}

// peek looks offset tokens ahead, clamping at EOF.
func (p *Parser) peek(offset int) lexer.Token {
	i := p.pos + offset
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// expect consumes a token of the given kind or fails the parse.
func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok := p.current()
	if tok.Kind != kind {
		return tok, p.errorf(tok, "expected %s, got %s", kind, tok.Kind)
	}
	return p.advance(), nil
}

// expectName consumes a name token with the given text or fails the parse.
func (p *Parser) expectName(name string) (lexer.Token, error) {
	tok := p.current()
	if tok.Kind != lexer.KindName || tok.Text != name {
		return tok, p.errorf(tok, "expected %s, got %s", name, describe(tok))
	}
	return p.advance(), nil
}

func describe(tok lexer.Token) string {
	if tok.Kind == lexer.KindName {
		return tok.Text
	}
	return tok.Kind.String()
}

func (p *Parser) skipNewlines() {
	for p.current().Kind == lexer.KindNewline {
		p.advance()
	}
}

// Parse builds the Program. Top-level directives never nest; the only
// nesting in the grammar is BEFORE/AFTER blocks inside SEARCH_AND_REPLACE.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}
	p.skipNewlines()
	for p.current().Kind != lexer.KindEOF {
		directive, err := p.parseDirective()
		if err != nil {
			return nil, err
		}
		program.Directives = append(program.Directives, directive)
		p.skipNewlines()
	}
	return program, nil
}

func (p *Parser) parseDirective() (ast.Directive, error) {
	start, err := p.expect(lexer.KindDirectiveStart)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.KindName)
	if err != nil {
		return nil, err
	}

	node, err := p.parseHeaderRest(start)
	if err != nil {
		return nil, err
	}

	switch name.Text {
	case lexer.NameCreate:
		return p.parseCreate(node)
	case lexer.NameDelete:
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		return ast.Delete{Node: node, Path: path}, nil
	case lexer.NameMove:
		return p.parseMove(node)
	case lexer.NameRead:
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		return ast.Read{Node: node, Path: path}, nil
	case lexer.NameTree:
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		return ast.Tree{Node: node, Path: path}, nil
	case lexer.NameOverwriteFile:
		return p.parseOverwriteFile(node)
	case lexer.NameSearchAndReplace:
		return p.parseSearchAndReplace(node)
	case lexer.NameFind:
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		return ast.Find{Node: node, Path: path}, nil
	case lexer.NameRun:
		command, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		return ast.Run{Node: node, Command: command}, nil
	default:
		return nil, p.errorf(name, "unexpected %s at top level", name.Text)
	}
}

// parseHeaderRest builds the shared node fields and consumes an optional
// parameter list following the directive name.
func (p *Parser) parseHeaderRest(start lexer.Token) (ast.Node, error) {
	node := ast.Node{Line: start.Line, Column: start.Column, Params: ast.Params{}}
	if p.current().Kind == lexer.KindLParen {
		params, err := p.parseParams()
		if err != nil {
			return node, err
		}
		node.Params = params
	}
	return node, nil
}

// parseParams parses (key=value, key2=value2). Number values become ints,
// the identifiers true/false become bools, and any other identifier is
// kept as a lowercased string.
func (p *Parser) parseParams() (ast.Params, error) {
	params := ast.Params{}
	if _, err := p.expect(lexer.KindLParen); err != nil {
		return nil, err
	}
	for p.current().Kind != lexer.KindRParen {
		key, err := p.expect(lexer.KindIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindEquals); err != nil {
			return nil, err
		}

		tok := p.current()
		switch tok.Kind {
		case lexer.KindString:
			params[key.Text] = p.advance().Text
		case lexer.KindNumber:
			n, err := strconv.Atoi(p.advance().Text)
			if err != nil {
				return nil, p.errorf(tok, "invalid number %q", tok.Text)
			}
			params[key.Text] = n
		case lexer.KindIdent:
			switch v := strings.ToLower(p.advance().Text); v {
			case "true":
				params[key.Text] = true
			case "false":
				params[key.Text] = false
			default:
				params[key.Text] = v
			}
		default:
			return nil, p.errorf(tok, "expected parameter value, got %s", tok.Kind)
		}

		if p.current().Kind == lexer.KindComma {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.KindRParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parsePath() (string, error) {
	tok, err := p.expect(lexer.KindPath)
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

// parseContentUntil collects content tokens until the given END marker is
// the next directive. A directive-start token whose name is not the
// expected marker is a parse failure, preventing malformed nesting from
// being swallowed as content.
func (p *Parser) parseContentUntil(endName string) (string, error) {
	var sb strings.Builder
	p.skipNewlines()
	for {
		tok := p.current()
		switch tok.Kind {
		case lexer.KindContent:
			sb.WriteString(p.advance().Text)
		case lexer.KindNewline:
			p.advance()
		case lexer.KindDirectiveStart:
			next := p.peek(1)
			if next.Kind == lexer.KindName && next.Text == endName {
				return sb.String(), nil
			}
			return "", p.errorf(tok, "unexpected directive in content block, expected %s", endName)
		case lexer.KindEOF:
			return "", p.errorf(tok, "unexpected EOF in content block, expected %s", endName)
		default:
			return "", p.errorf(tok, "unexpected %s in content block", tok.Kind)
		}
	}
}

func (p *Parser) parseCreate(node ast.Node) (ast.Directive, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()

	content, err := p.parseContentUntil(lexer.NameEndCreate)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindDirectiveStart); err != nil {
		return nil, err
	}
	if _, err := p.expectName(lexer.NameEndCreate); err != nil {
		return nil, err
	}
	p.skipNewlines()

	return ast.Create{Node: node, Path: path, Content: content}, nil
}

func (p *Parser) parseOverwriteFile(node ast.Node) (ast.Directive, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()

	content, err := p.parseContentUntil(lexer.NameEndOverwriteFile)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindDirectiveStart); err != nil {
		return nil, err
	}
	if _, err := p.expectName(lexer.NameEndOverwriteFile); err != nil {
		return nil, err
	}
	p.skipNewlines()

	return ast.OverwriteFile{Node: node, Path: path, Content: content}, nil
}

// parseMove splits the single path token on its first run of whitespace.
// Fewer than two parts is a parse failure.
func (p *Parser) parseMove(node ast.Node) (ast.Directive, error) {
	tok := p.current()
	if tok.Kind != lexer.KindPath {
		return nil, p.errorf(tok, "expected source and destination paths for MOVE")
	}
	text := p.advance().Text
	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return nil, p.errorf(tok, "MOVE requires both source and destination paths")
	}
	source, dest := text[:i], strings.TrimSpace(text[i:])
	if dest == "" {
		return nil, p.errorf(tok, "MOVE requires both source and destination paths")
	}
	p.skipNewlines()
	return ast.Move{Node: node, Source: source, Dest: dest}, nil
}

// parseSearchAndReplace parses an ordered, non-empty sequence of
// BEFORE/AFTER pairs terminated by END_SEARCH_AND_REPLACE.
func (p *Parser) parseSearchAndReplace(node ast.Node) (ast.Directive, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()

	var blocks []ast.BeforeAfterBlock
	for {
		tok := p.current()
		switch tok.Kind {
		case lexer.KindDirectiveStart:
			next := p.peek(1)
			switch {
			case next.Kind == lexer.KindName && next.Text == lexer.NameEndSearchAndReplace:
				if len(blocks) == 0 {
					return nil, p.errorf(tok, "SEARCH_AND_REPLACE requires at least one BEFORE/AFTER block")
				}
				p.advance()
				p.advance()
				p.skipNewlines()
				return ast.SearchAndReplace{Node: node, Path: path, Blocks: blocks}, nil
			case next.Kind == lexer.KindName && next.Text == lexer.NameBefore:
				block, err := p.parseBeforeAfterBlock()
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, block)
			default:
				return nil, p.errorf(next, "expected BEFORE or END_SEARCH_AND_REPLACE, got %s", describe(next))
			}
		case lexer.KindEOF:
			return nil, p.errorf(tok, "unexpected EOF in SEARCH_AND_REPLACE block")
		default:
			// Stray whitespace content between blocks.
			p.advance()
		}
	}
}

// parseBeforeAfterBlock parses one BEFORE ... END_BEFORE AFTER ... END_AFTER
// pair. The trailing newline of each body is stripped once so the block
// boundary aligns with the last content line.
func (p *Parser) parseBeforeAfterBlock() (ast.BeforeAfterBlock, error) {
	var block ast.BeforeAfterBlock

	if _, err := p.expect(lexer.KindDirectiveStart); err != nil {
		return block, err
	}
	if _, err := p.expectName(lexer.NameBefore); err != nil {
		return block, err
	}
	p.skipNewlines()

	before, err := p.parseContentUntil(lexer.NameEndBefore)
	if err != nil {
		return block, err
	}
	if _, err := p.expect(lexer.KindDirectiveStart); err != nil {
		return block, err
	}
	if _, err := p.expectName(lexer.NameEndBefore); err != nil {
		return block, err
	}
	p.skipNewlines()

	if _, err := p.expect(lexer.KindDirectiveStart); err != nil {
		return block, err
	}
	if _, err := p.expectName(lexer.NameAfter); err != nil {
		return block, err
	}
	p.skipNewlines()

	after, err := p.parseContentUntil(lexer.NameEndAfter)
	if err != nil {
		return block, err
	}
	if _, err := p.expect(lexer.KindDirectiveStart); err != nil {
		return block, err
	}
	if _, err := p.expectName(lexer.NameEndAfter); err != nil {
		return block, err
	}
	p.skipNewlines()

	block.Before = strings.TrimSuffix(before, "\n")
	block.After = strings.TrimSuffix(after, "\n")
	return block, nil
}
