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

// Package ingestion turns source files into code symbols.
//
// The package owns the symbol data model (CodeSymbol, Span, FileSymbols,
// ProjectSymbolIndex), grammar management, symbol extraction, and file
// discovery for the indexer.
//
// # Supported Languages
//
// Files are routed by extension:
//   - Python (.py, .pyi)
//   - JavaScript (.js, .jsx, .mjs, .cjs)
//   - TypeScript (.ts, .mts, .cts) and TSX (.tsx)
//   - Go (.go)
//   - Java (.java)
//   - Rust (.rs)
//
// Any other extension yields no symbols and no error.
//
// # Key Components
//
// GrammarRegistry loads each tree-sitter grammar at most once, on first use,
// and pools parsers per language:
//
//	registry := ingestion.NewGrammarRegistry(logger, nil)
//	ok := registry.Available(ingestion.LangPython)
//
// A grammar whose loader panics or returns nil is reported unavailable and
// files in that language are skipped rather than failed.
//
// Extractor walks the syntax tree with a per-language production table:
//
//	extractor := ingestion.NewExtractor(registry, ingestion.ExtractorConfig{
//	    MaxFileSizeBytes: 1 << 20,
//	}, logger)
//	symbols, err := extractor.ParseFile(ctx, "service.py", nil)
//
// ParseFile returns a flat list in discovery order. Symbols found inside a
// class-like container are also linked from the container's Children; both
// views hold the same *CodeSymbol values.
//
// CollectFiles selects the files of a checkout using include and exclude
// globs (see MatchGlob), an optional size ceiling and, optionally, the
// repository's .gitignore files.
//
// # Metrics
//
// Files parsed and skipped, symbols extracted, truncated bodies, grammar
// failures and parse latency are exported to Prometheus under the
// symdex_ing_ prefix.
package ingestion
