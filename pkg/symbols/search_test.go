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

package symbols

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	symtest "github.com/kraklabs/symdex/internal/testing"
	"github.com/kraklabs/symdex/pkg/ingestion"
)

func sym(name string, kind ingestion.SymbolKind, file string, line int) *ingestion.CodeSymbol {
	return &ingestion.CodeSymbol{
		Name:     name,
		Kind:     kind,
		FilePath: file,
		Span:     ingestion.Span{StartLine: line, EndLine: line, StartCol: 1, EndCol: 10},
	}
}

func cachedIndex(t *testing.T, symbols ...*ingestion.CodeSymbol) *Index {
	t.Helper()
	idx, _ := newTestIndex(t, nil)
	_, err := idx.CacheSymbols(context.Background(), symbols)
	require.NoError(t, err)
	return idx
}

func resultNames(results []SearchResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Symbol.Name
	}
	return names
}

func TestSearch_RanksByMatchQuality(t *testing.T) {
	idx := cachedIndex(t,
		sym("reparse", ingestion.KindFunction, "a.py", 1),
		sym("p_r_s", ingestion.KindFunction, "a.py", 2),
		sym("parser", ingestion.KindClass, "a.py", 3),
		sym("parse", ingestion.KindFunction, "b.py", 1),
		sym("unrelated", ingestion.KindFunction, "b.py", 2),
	)

	results, err := idx.Search(context.Background(), "parse", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"parse", "parser", "reparse"}, resultNames(results))
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.9, results[1].Score)
	assert.Equal(t, 0.7, results[2].Score)
}

// A subsequence-only match ranks below every literal match in the same call.
func TestSearch_FuzzyRanksBelowLiteral(t *testing.T) {
	idx := cachedIndex(t,
		sym("lpha", ingestion.KindFunction, "a.py", 1), // not a subsequence
		sym("alpha", ingestion.KindFunction, "a.py", 2),
		sym("alh", ingestion.KindFunction, "a.py", 3),
		sym("alhambra", ingestion.KindFunction, "a.py", 4),
	)

	results, err := idx.Search(context.Background(), "alh", SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"alh", "alhambra", "alpha"}, resultNames(results))
	assert.Less(t, results[2].Score, 0.6)
	assert.Greater(t, results[2].Score, 0.0)
	for _, r := range results[:2] {
		assert.Greater(t, r.Score, results[2].Score)
	}

	exact, err := idx.Search(context.Background(), "alh", SearchOptions{Fuzzy: Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"alh", "alhambra"}, resultNames(exact))
}

func TestSearch_ExactNameRanksFirst(t *testing.T) {
	idx := cachedIndex(t,
		sym("handlerFactory", ingestion.KindFunction, "a.go", 1),
		sym("newHandler", ingestion.KindFunction, "a.go", 2),
		sym("Handler", ingestion.KindInterface, "b.go", 1),
	)

	results, err := idx.Search(context.Background(), "handler", SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Handler", results[0].Symbol.Name)
	assert.Equal(t, 1.0, results[0].Score)

	results, err = idx.Search(context.Background(), "Handler", SearchOptions{Kinds: []ingestion.SymbolKind{ingestion.KindFunction}})
	require.NoError(t, err)
	assert.Equal(t, []string{"handlerFactory", "newHandler"}, resultNames(results))
}

func TestSearch_FiltersByKindAndFile(t *testing.T) {
	idx := cachedIndex(t,
		sym("load", ingestion.KindFunction, "pkg/io/load.py", 1),
		sym("load", ingestion.KindMethod, "pkg/db/store.py", 1),
		sym("load", ingestion.KindFunction, "tests/test_load.py", 1),
	)
	ctx := context.Background()

	results, err := idx.Search(ctx, "load", SearchOptions{Kinds: []ingestion.SymbolKind{ingestion.KindMethod}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pkg/db/store.py", results[0].Symbol.FilePath)

	results, err = idx.Search(ctx, "load", SearchOptions{FileFilter: "pkg/**"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = idx.Search(ctx, "load", SearchOptions{FileFilter: "tests/**", Kinds: []ingestion.SymbolKind{ingestion.KindMethod}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_LimitKeepsDiscoveryOrderOnTies(t *testing.T) {
	var syms []*ingestion.CodeSymbol
	for i := 1; i <= 30; i++ {
		syms = append(syms, sym("item", ingestion.KindVariable, fmt.Sprintf("f%02d.py", i), 1))
	}
	idx := cachedIndex(t, syms...)
	ctx := context.Background()

	results, err := idx.Search(ctx, "item", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, DefaultSearchLimit)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("f%02d.py", i+1), r.Symbol.FilePath)
	}

	results, err = idx.Search(ctx, "item", SearchOptions{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	defs, err := idx.FindDefinitions(ctx, "item")
	require.NoError(t, err)
	assert.Len(t, defs, DefinitionLimit)
}

func TestSearch_EmptyQueryMatchesEverything(t *testing.T) {
	idx := cachedIndex(t,
		sym("a", ingestion.KindFunction, "a.py", 1),
		sym("b", ingestion.KindFunction, "a.py", 2),
	)
	results, err := idx.Search(context.Background(), "", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0.9, results[0].Score)
}

func TestSearch_ResultsAreCopies(t *testing.T) {
	idx := cachedIndex(t, sym("alpha", ingestion.KindFunction, "a.py", 1))
	ctx := context.Background()

	results, err := idx.Search(ctx, "alpha", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	results[0].Symbol.Name = "changed"
	results[0].Symbol.Span.StartLine = 99

	again, err := idx.Search(ctx, "alpha", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "alpha", again[0].Symbol.Name)
	assert.Equal(t, "a.py:1", again[0].Context)
}

func TestSearch_BeforeIndexing(t *testing.T) {
	idx, _ := newTestIndex(t, nil)
	results, err := idx.Search(context.Background(), "anything", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)

	tree, err := idx.GetSymbolHierarchy(context.Background(), "a.py")
	require.NoError(t, err)
	assert.Empty(t, tree)

	_, ok := idx.Stats()
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = idx.Search(ctx, "x", SearchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetSymbolHierarchy(t *testing.T) {
	root := t.TempDir()
	symtest.WriteTree(t, root, map[string]string{
		"foo.py": "class Foo:\n    def bar(self):\n        return 1\n\n    def baz(self):\n        return 2\n\n\ndef top():\n    pass\n",
	})
	idx, _ := newTestIndex(t, nil)
	ctx := context.Background()
	_, err := idx.IndexRepository(ctx, root, nil, nil)
	require.NoError(t, err)

	tree, err := idx.GetSymbolHierarchy(ctx, "foo.py")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Foo", tree[0].Name)
	assert.Equal(t, ingestion.KindClass, tree[0].Kind)
	assert.Equal(t, []string{"bar", "baz"}, []string{tree[0].Children[0].Name, tree[0].Children[1].Name})
	assert.Equal(t, "top", tree[1].Name)
	assert.Empty(t, tree[1].Children)

	// The tree is a copy.
	tree[0].Children[0].Name = "mutated"
	again, err := idx.GetSymbolHierarchy(ctx, filepath.Join(root, "foo.py"))
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, "bar", again[0].Children[0].Name)

	missing, err := idx.GetSymbolHierarchy(ctx, "nope.py")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
