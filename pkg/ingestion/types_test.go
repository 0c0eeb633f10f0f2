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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleClass() *CodeSymbol {
	method := &CodeSymbol{
		Name:     "bar",
		Kind:     KindMethod,
		FilePath: "foo.py",
		Span:     Span{StartLine: 2, EndLine: 3, StartCol: 5, EndCol: 17},
		Parent:   "Foo",
		Metadata: map[string]string{"k": "v"},
	}
	return &CodeSymbol{
		Name:     "Foo",
		Kind:     KindClass,
		FilePath: "foo.py",
		Span:     Span{StartLine: 1, EndLine: 3, StartCol: 1, EndCol: 17},
		Children: []*CodeSymbol{method},
	}
}

func TestParseSymbolKind(t *testing.T) {
	for _, k := range AllKinds {
		got, err := ParseSymbolKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseSymbolKind("struct")
	assert.Error(t, err)
	_, err = ParseSymbolKind("")
	assert.Error(t, err)
}

func TestSpan_Contains(t *testing.T) {
	outer := Span{StartLine: 1, EndLine: 10, StartCol: 1, EndCol: 2}
	assert.True(t, outer.Contains(Span{StartLine: 2, EndLine: 9, StartCol: 1, EndCol: 80}))
	assert.True(t, outer.Contains(outer))
	assert.False(t, outer.Contains(Span{StartLine: 1, EndLine: 11}))
	assert.False(t, outer.Contains(Span{StartLine: 10, EndLine: 10, StartCol: 1, EndCol: 5}))
	assert.False(t, Span{StartLine: 3, EndLine: 2}.Valid())
}

func TestCodeSymbol_CloneIsDeep(t *testing.T) {
	orig := sampleClass()
	c := orig.Clone()
	require.NotSame(t, orig, c)
	require.NotSame(t, orig.Children[0], c.Children[0])

	c.Name = "Changed"
	c.Children[0].Name = "changed"
	c.Children[0].Metadata["k"] = "other"
	assert.Equal(t, "Foo", orig.Name)
	assert.Equal(t, "bar", orig.Children[0].Name)
	assert.Equal(t, "v", orig.Children[0].Metadata["k"])
	assert.Nil(t, (*CodeSymbol)(nil).Clone())
}

func TestCodeSymbol_WalkAndValidate(t *testing.T) {
	cls := sampleClass()
	var seen []string
	cls.Walk(func(s *CodeSymbol) bool {
		seen = append(seen, s.Name)
		return true
	})
	assert.Equal(t, []string{"Foo", "bar"}, seen)

	seen = nil
	cls.Walk(func(s *CodeSymbol) bool {
		seen = append(seen, s.Name)
		return false
	})
	assert.Equal(t, []string{"Foo"}, seen)

	require.NoError(t, cls.Validate())

	cls.Children[0].Parent = "Other"
	assert.Error(t, cls.Validate())

	cls = sampleClass()
	cls.Children[0].Span.EndLine = 4
	assert.Error(t, cls.Validate())
}

func TestNewProjectSymbolIndex(t *testing.T) {
	fn := &CodeSymbol{Name: "alpha", Kind: KindFunction, FilePath: "a.py", Span: Span{StartLine: 1, EndLine: 1}}
	cls := sampleClass()
	idx := NewProjectSymbolIndex("proj", "/repo", "build-1", []FileSymbols{
		{FilePath: "a.py", Language: LangPython, Symbols: []*CodeSymbol{fn}},
		{FilePath: "foo.py", Language: LangPython, Symbols: []*CodeSymbol{cls}},
	})

	assert.Equal(t, 2, idx.FileCount)
	assert.Equal(t, 3, idx.SymbolCount())
	all := idx.All()
	assert.Same(t, fn, all[0])
	assert.Same(t, cls, all[1])
	assert.Same(t, cls.Children[0], all[2])

	fs, ok := idx.File("foo.py")
	require.True(t, ok)
	assert.Equal(t, "foo.py", fs.FilePath)
	_, ok = idx.File("missing.py")
	assert.False(t, ok)

	var nilIdx *ProjectSymbolIndex
	assert.Zero(t, nilIdx.SymbolCount())
	assert.Nil(t, nilIdx.All())
}

func TestProjectSymbolIndex_CloneIsDeep(t *testing.T) {
	orig := NewProjectSymbolIndex("proj", "/repo", "build-1", []FileSymbols{
		{FilePath: "foo.py", Language: LangPython, Symbols: []*CodeSymbol{sampleClass()}},
	})
	orig.SkipReasons = map[string]int{"too_large": 1}
	orig.Failures = []FileFailure{{FilePath: "bad.py", Error: "boom"}}

	c := orig.Clone()
	require.NotSame(t, orig, c)
	assert.Equal(t, orig.BuildID, c.BuildID)
	assert.Equal(t, orig.BuiltAt, c.BuiltAt)
	require.Equal(t, 2, c.SymbolCount())
	assert.Same(t, c.Files[0].Symbols[0].Children[0], c.All()[1])

	c.All()[0].Name = "Changed"
	c.All()[1].Metadata["k"] = "other"
	c.SkipReasons["too_large"] = 5
	c.Failures[0].Error = "changed"
	assert.Equal(t, "Foo", orig.All()[0].Name)
	assert.Equal(t, "v", orig.All()[1].Metadata["k"])
	assert.Equal(t, 1, orig.SkipReasons["too_large"])
	assert.Equal(t, "boom", orig.Failures[0].Error)

	fs, ok := c.File("foo.py")
	require.True(t, ok)
	assert.Equal(t, "Changed", fs.Symbols[0].Name)
	assert.Nil(t, (*ProjectSymbolIndex)(nil).Clone())
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"a.py", LangPython},
		{"stubs/a.pyi", LangPython},
		{"a.js", LangJavaScript},
		{"a.JSX", LangJavaScript},
		{"a.mjs", LangJavaScript},
		{"a.cjs", LangJavaScript},
		{"a.ts", LangTypeScript},
		{"a.mts", LangTypeScript},
		{"a.tsx", LangTSX},
		{"main.go", LangGo},
		{"Main.java", LangJava},
		{"lib.rs", LangRust},
		{"README.md", ""},
		{"Makefile", ""},
		{"archive.tar.gz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.path))
		})
	}

	assert.Equal(t, []string{".py", ".pyi"}, Extensions(LangPython))
	assert.Equal(t, []string{".tsx"}, Extensions(LangTSX))
}
