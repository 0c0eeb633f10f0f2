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
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/symdex/pkg/ingestion"
)

// DefaultSearchLimit caps search results when SearchOptions.Limit is unset.
const DefaultSearchLimit = 20

// DefinitionLimit caps FindDefinitions results.
const DefinitionLimit = 10

// SearchOptions narrows a search.
type SearchOptions struct {
	// Kinds keeps only symbols of these kinds. Empty keeps all.
	Kinds []ingestion.SymbolKind
	// FileFilter is a glob matched against the repository-relative path.
	FileFilter string
	// Limit caps the number of results. 0 selects DefaultSearchLimit.
	Limit int
	// Fuzzy enables subsequence matching. Nil means true.
	Fuzzy *bool
}

// Bool returns a pointer to b, for SearchOptions.Fuzzy.
func Bool(b bool) *bool { return &b }

// SearchResult is one ranked match. Symbol is a copy owned by the caller.
type SearchResult struct {
	Symbol  *ingestion.CodeSymbol `json:"symbol"`
	Score   float64               `json:"score"`
	Context string                `json:"context,omitempty"`
}

type candidate struct {
	sym   *ingestion.CodeSymbol
	score float64
}

// Search ranks the project's symbols by name against query. Candidates are
// filtered by kind and file glob first; zero scores are dropped. Results are
// ordered by score, ties keeping discovery order, and cut to the limit.
// A project that has not been indexed yields no results.
func (x *Index) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	fuzzy := opts.Fuzzy == nil || *opts.Fuzzy
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	defer func() { recordSearch(fuzzy, time.Since(start)) }()

	idx, ok := x.store.Load(x.projectID)
	if !ok {
		return []SearchResult{}, nil
	}

	var kinds map[ingestion.SymbolKind]struct{}
	if len(opts.Kinds) > 0 {
		kinds = make(map[ingestion.SymbolKind]struct{}, len(opts.Kinds))
		for _, k := range opts.Kinds {
			kinds[k] = struct{}{}
		}
	}
	fileFilter := filepath.ToSlash(opts.FileFilter)

	var matches []candidate
	for i, sym := range idx.All() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if kinds != nil {
			if _, ok := kinds[sym.Kind]; !ok {
				continue
			}
		}
		if fileFilter != "" && !ingestion.MatchGlob(sym.FilePath, fileFilter) {
			continue
		}
		score := MatchScore(query, sym.Name, fuzzy)
		if score <= 0 {
			continue
		}
		matches = append(matches, candidate{sym: sym, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Symbol:  m.sym.Clone(),
			Score:   m.score,
			Context: resultContext(m.sym),
		}
	}
	return results, nil
}

// resultContext locates a symbol as "path:line", followed by its signature
// when known.
func resultContext(sym *ingestion.CodeSymbol) string {
	loc := fmt.Sprintf("%s:%d", sym.FilePath, sym.Span.StartLine)
	if sym.Signature == "" {
		return loc
	}
	return loc + " " + sym.Signature
}

// FindDefinitions returns exact, prefix and substring matches for name,
// without fuzzy matching, capped at DefinitionLimit.
func (x *Index) FindDefinitions(ctx context.Context, name string) ([]SearchResult, error) {
	return x.Search(ctx, name, SearchOptions{Limit: DefinitionLimit, Fuzzy: Bool(false)})
}

// GetSymbolHierarchy returns copies of the top-level symbols of filePath,
// each with its full subtree. filePath is repository-relative; an absolute
// path inside the indexed repository is accepted too.
func (x *Index) GetSymbolHierarchy(ctx context.Context, filePath string) ([]*ingestion.CodeSymbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, ok := x.store.Load(x.projectID)
	if !ok {
		return []*ingestion.CodeSymbol{}, nil
	}

	rel := filePath
	if filepath.IsAbs(filePath) && idx.RepoPath != "" {
		if r, err := filepath.Rel(idx.RepoPath, filePath); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	fs, ok := idx.File(normalizePath(rel))
	if !ok {
		return []*ingestion.CodeSymbol{}, nil
	}

	out := make([]*ingestion.CodeSymbol, 0, len(fs.Symbols))
	for _, sym := range fs.Symbols {
		if sym.Parent == "" {
			out = append(out, sym.Clone())
		}
	}
	return out, nil
}
