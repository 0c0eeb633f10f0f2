// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"fmt"
	"time"
)

// SymbolKind classifies a code symbol.
type SymbolKind string

const (
	KindModule    SymbolKind = "module"
	KindClass     SymbolKind = "class"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindImport    SymbolKind = "import"
)

// AllKinds lists every valid SymbolKind in declaration order.
var AllKinds = []SymbolKind{
	KindModule, KindClass, KindFunction, KindMethod, KindProperty,
	KindVariable, KindConstant, KindInterface, KindEnum, KindImport,
}

// Valid reports whether k is one of the enumerated kinds.
func (k SymbolKind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseSymbolKind converts a user-supplied string into a SymbolKind.
func ParseSymbolKind(s string) (SymbolKind, error) {
	k := SymbolKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown symbol kind %q", s)
	}
	return k, nil
}

// Span is the extent of a symbol within its file. Lines and columns are 1-based.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
	StartCol  int `json:"start_col"`
	EndCol    int `json:"end_col"`
}

// Valid reports whether the span is well formed.
func (s Span) Valid() bool {
	return s.StartLine >= 1 && s.StartLine <= s.EndLine
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	if other.StartLine < s.StartLine || other.EndLine > s.EndLine {
		return false
	}
	if other.StartLine == s.StartLine && other.StartCol < s.StartCol {
		return false
	}
	if other.EndLine == s.EndLine && other.EndCol > s.EndCol {
		return false
	}
	return true
}

// CodeSymbol is a named, located code construct extracted from source text.
//
// A symbol discovered inside a container (a class body, for example) is
// referenced twice: from its parent's Children and from the flat list
// returned by the extractor. Both references point at the same value.
type CodeSymbol struct {
	Name      string            `json:"name"`
	Kind      SymbolKind        `json:"kind"`
	FilePath  string            `json:"file_path"`
	Span      Span              `json:"span"`
	Body      string            `json:"body,omitempty"`
	Signature string            `json:"signature,omitempty"`
	Docstring string            `json:"docstring,omitempty"`
	Parent    string            `json:"parent,omitempty"`
	Children  []*CodeSymbol     `json:"children,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IsTopLevel reports whether the symbol has no enclosing symbol.
func (s *CodeSymbol) IsTopLevel() bool {
	return s.Parent == ""
}

// Clone returns a deep copy of the symbol and its subtree.
func (s *CodeSymbol) Clone() *CodeSymbol {
	if s == nil {
		return nil
	}
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	if s.Children != nil {
		c.Children = make([]*CodeSymbol, len(s.Children))
		for i, child := range s.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Walk calls fn for s and every descendant, depth-first, parents before
// children. Returning false from fn skips the subtree below that symbol.
func (s *CodeSymbol) Walk(fn func(*CodeSymbol) bool) {
	if s == nil || !fn(s) {
		return
	}
	for _, child := range s.Children {
		child.Walk(fn)
	}
}

// Validate checks the structural invariants of the symbol subtree.
func (s *CodeSymbol) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("symbol in %s has empty name", s.FilePath)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("symbol %s has invalid kind %q", s.Name, s.Kind)
	}
	if !s.Span.Valid() {
		return fmt.Errorf("symbol %s has invalid span %+v", s.Name, s.Span)
	}
	for _, child := range s.Children {
		if child.Parent != s.Name {
			return fmt.Errorf("child %s of %s has parent %q", child.Name, s.Name, child.Parent)
		}
		if !s.Span.Contains(child.Span) {
			return fmt.Errorf("child %s span %+v escapes parent %s span %+v", child.Name, child.Span, s.Name, s.Span)
		}
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FileSymbols holds the top-level symbols of one file, in source order.
type FileSymbols struct {
	FilePath string        `json:"file_path"`
	Language Language      `json:"language"`
	Symbols  []*CodeSymbol `json:"symbols"`
}

// FileFailure records a file that could not be indexed.
type FileFailure struct {
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

// ProjectSymbolIndex is the aggregated result of indexing one project.
//
// A published index is never mutated; re-indexing builds a new value that
// replaces it wholesale.
type ProjectSymbolIndex struct {
	ProjectID   string         `json:"project_id"`
	RepoPath    string         `json:"repo_path"`
	BuildID     string         `json:"build_id"`
	BuiltAt     time.Time      `json:"built_at"`
	Files       []FileSymbols  `json:"files"`
	FileCount   int            `json:"file_count"`
	Failures    []FileFailure  `json:"failures,omitempty"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`

	flat   []*CodeSymbol
	byFile map[string]int
}

// NewProjectSymbolIndex assembles an index from per-file results. The flat
// view is derived from the hierarchy in discovery order (files in the given
// order, each symbol before its children).
func NewProjectSymbolIndex(projectID, repoPath, buildID string, files []FileSymbols) *ProjectSymbolIndex {
	idx := &ProjectSymbolIndex{
		ProjectID: projectID,
		RepoPath:  repoPath,
		BuildID:   buildID,
		BuiltAt:   time.Now(),
		Files:     files,
		FileCount: len(files),
		byFile:    make(map[string]int, len(files)),
	}
	for i, fs := range files {
		idx.byFile[fs.FilePath] = i
		for _, sym := range fs.Symbols {
			sym.Walk(func(s *CodeSymbol) bool {
				idx.flat = append(idx.flat, s)
				return true
			})
		}
	}
	return idx
}

// Clone returns a deep copy of the index. Symbols, files and failure data
// are copied; the copy's flat view points into its own hierarchy.
func (p *ProjectSymbolIndex) Clone() *ProjectSymbolIndex {
	if p == nil {
		return nil
	}
	files := make([]FileSymbols, len(p.Files))
	for i, fs := range p.Files {
		syms := make([]*CodeSymbol, len(fs.Symbols))
		for j, s := range fs.Symbols {
			syms[j] = s.Clone()
		}
		files[i] = FileSymbols{FilePath: fs.FilePath, Language: fs.Language, Symbols: syms}
	}
	c := NewProjectSymbolIndex(p.ProjectID, p.RepoPath, p.BuildID, files)
	c.BuiltAt = p.BuiltAt
	c.FileCount = p.FileCount
	if p.Failures != nil {
		c.Failures = append([]FileFailure(nil), p.Failures...)
	}
	if p.SkipReasons != nil {
		c.SkipReasons = make(map[string]int, len(p.SkipReasons))
		for k, v := range p.SkipReasons {
			c.SkipReasons[k] = v
		}
	}
	return c
}

// All returns every symbol in the index, nested symbols included, in
// discovery order. The returned slice is shared and must not be modified.
func (p *ProjectSymbolIndex) All() []*CodeSymbol {
	if p == nil {
		return nil
	}
	return p.flat
}

// SymbolCount returns the number of symbols in the flat view.
func (p *ProjectSymbolIndex) SymbolCount() int {
	if p == nil {
		return 0
	}
	return len(p.flat)
}

// File returns the symbols recorded for filePath.
func (p *ProjectSymbolIndex) File(filePath string) (FileSymbols, bool) {
	if p == nil {
		return FileSymbols{}, false
	}
	i, ok := p.byFile[filePath]
	if !ok {
		return FileSymbols{}, false
	}
	return p.Files[i], true
}
