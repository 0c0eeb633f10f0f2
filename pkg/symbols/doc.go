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

// Package symbols indexes a repository's code symbols and answers queries
// over the index.
//
// An Index is bound to one project id. IndexRepository discovers matching
// files, parses them in parallel with an ingestion.SymbolParser and
// publishes the aggregated ingestion.ProjectSymbolIndex to a storage.Store:
//
//	parser := ingestion.NewExtractor(nil, ingestion.ExtractorConfig{}, logger)
//	store := storage.NewMemoryStore(storage.MemoryConfig{})
//	idx := symbols.New("myproject", parser, store, symbols.Config{}, logger)
//
//	res, err := idx.IndexRepository(ctx, "/path/to/checkout", nil, nil)
//	if err != nil {
//	    return err
//	}
//	hits, err := idx.Search(ctx, "handler", symbols.SearchOptions{})
//
// # Ranking
//
// Search scores each candidate name with MatchScore: 1.0 for an exact match,
// 0.9 for a prefix, 0.7 for a substring, all case-insensitive. With fuzzy
// matching enabled, a query that is an in-order subsequence of the name
// scores 0.6 times the fraction of the name it covers, provided that fraction
// exceeds one half. Results are sorted by score; equal scores keep the order
// in which symbols were discovered.
//
// # Ownership
//
// The published index is shared by all readers and never modified. Every
// symbol handed out by Search, FindDefinitions and GetSymbolHierarchy is a
// deep copy.
//
// # Metrics
//
//   - symdex_index_builds_total{result}
//   - symdex_index_build_duration_seconds
//   - symdex_searches_total{mode}
//   - symdex_search_duration_seconds
package symbols
