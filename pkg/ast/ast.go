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

// Package ast defines the syntax tree produced by the kifdiff parser.
// A Program is an ordered list of directives; document order is execution
// order and is never reordered.
package ast

// 🧩 Node carries the source position and parameter list shared by every
// directive variant.
type Node struct {
	Line   int    // 1-based line of the @Kif marker
	Column int    // 1-based column of the @Kif marker
	Params Params // never nil after parsing
}

// Pos returns the source position of the node.
func (n Node) Pos() (line, column int) {
	return n.Line, n.Column
}

// 🎯 Directive is the closed set of instructions the engine can execute.
// The unexported marker method seals the set: dispatch is an exhaustive
// type switch with no "unknown directive" branch.
type Directive interface {
	Pos() (line, column int)
	directive()
}

// 📦 Program is the root of a parsed document.
type Program struct {
	Directives []Directive
}

// Create writes a new file with the given content, creating parent
// directories as needed.
type Create struct {
	Node
	Path    string
	Content string
}

// Delete removes a file. A missing file is a skip, not a failure.
type Delete struct {
	Node
	Path string
}

// Move renames a file or directory, creating the destination's parent
// directories. A missing source is a failure.
type Move struct {
	Node
	Source string
	Dest   string
}

// Read appends a file's content to the report buffer.
type Read struct {
	Node
	Path string
}

// Tree renders a directory listing into the report buffer.
type Tree struct {
	Node
	Path string
}

// OverwriteFile replaces a file's content wholesale, backing up any
// pre-existing target first.
type OverwriteFile struct {
	Node
	Path    string
	Content string
}

// 🔄 BeforeAfterBlock is one search/replace pair inside a SearchAndReplace
// directive. A trailing single newline is stripped once at parse time so
// block boundaries line up with file lines.
type BeforeAfterBlock struct {
	Before string
	After  string
}

// SearchAndReplace applies its blocks to one file in order. A parsed
// directive always has at least one block.
type SearchAndReplace struct {
	Node
	Path   string
	Blocks []BeforeAfterBlock
}

// Find enumerates files under a root matching the configured patterns.
type Find struct {
	Node
	Path string
}

// Run hands a command line to the external command runner.
type Run struct {
	Node
	Command string
}

func (Create) directive()           {}
func (Delete) directive()           {}
func (Move) directive()             {}
func (Read) directive()             {}
func (Tree) directive()             {}
func (OverwriteFile) directive()    {}
func (SearchAndReplace) directive() {}
func (Find) directive()             {}
func (Run) directive()              {}
