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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// DefaultMaxFileSizeBytes is the parse ceiling used when none is configured.
const DefaultMaxFileSizeBytes int64 = 1 << 20

// ExtractorConfig tunes the extractor.
type ExtractorConfig struct {
	// MaxFileSizeBytes skips larger files. 0 selects DefaultMaxFileSizeBytes;
	// a negative value disables the check.
	MaxFileSizeBytes int64
	// MaxBodyBytes truncates symbol bodies; 0 keeps them whole.
	MaxBodyBytes int64
}

// FileParse is the detailed outcome of parsing one file.
type FileParse struct {
	Language Language
	// Symbols is the flat list in discovery order, nested symbols included.
	Symbols []*CodeSymbol
	// Skipped is set when the file produced no symbols by policy.
	Skipped SkipReason
	// SyntaxErrors reports that the tree contained error nodes. Symbols
	// from the well-formed parts are still returned.
	SyntaxErrors bool
}

// Extractor extracts symbols from source files. It is safe for concurrent
// use; all per-parse state lives on the call stack.
type Extractor struct {
	registry  *GrammarRegistry
	config    ExtractorConfig
	logger    *slog.Logger
	truncated atomic.Int64
}

// NewExtractor creates an extractor backed by registry. A nil registry
// installs one with the default grammars.
func NewExtractor(registry *GrammarRegistry, config ExtractorConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewGrammarRegistry(logger, nil)
	}
	if config.MaxFileSizeBytes == 0 {
		config.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	return &Extractor{registry: registry, config: config, logger: logger}
}

// Registry returns the grammar registry used by the extractor.
func (e *Extractor) Registry() *GrammarRegistry { return e.registry }

// ParseFile returns every symbol in the file, nested symbols included, in
// discovery order. A nil content reads the file from disk.
//
// Unsupported languages, unavailable grammars, oversized files and binary
// content yield an empty result and a nil error. I/O failures are returned.
func (e *Extractor) ParseFile(ctx context.Context, filePath string, content []byte) ([]*CodeSymbol, error) {
	res, err := e.ParseFileDetailed(ctx, filePath, content)
	if err != nil {
		return nil, err
	}
	return res.Symbols, nil
}

// ParseFileDetailed is ParseFile with the skip reason and language reported.
func (e *Extractor) ParseFileDetailed(ctx context.Context, filePath string, content []byte) (*FileParse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := DetectLanguage(filePath)
	if lang == "" {
		return e.skip(filePath, "", SkipUnsupportedLanguage), nil
	}
	if !e.registry.Available(lang) {
		return e.skip(filePath, lang, SkipGrammarUnavailable), nil
	}
	rules, ok := languageRules[lang]
	if !ok {
		return e.skip(filePath, lang, SkipUnsupportedLanguage), nil
	}

	limit := e.config.MaxFileSizeBytes
	if content == nil {
		info, err := os.Stat(filePath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", filePath, err)
		}
		if limit > 0 && info.Size() > limit {
			return e.skip(filePath, lang, SkipTooLarge), nil
		}
		content, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filePath, err)
		}
	}
	if limit > 0 && int64(len(content)) > limit {
		return e.skip(filePath, lang, SkipTooLarge), nil
	}
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return e.skip(filePath, lang, SkipDecode), nil
	}

	start := time.Now()
	tree, err := e.registry.Parse(ctx, lang, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &symbolWalker{
		rules:    rules,
		content:  content,
		filePath: filePath,
		maxBody:  e.config.MaxBodyBytes,
	}
	if root != nil {
		w.walkChildren(root, nil)
	}

	res := &FileParse{
		Language:     lang,
		Symbols:      w.symbols,
		SyntaxErrors: root != nil && root.HasError(),
	}
	if res.SyntaxErrors {
		e.logger.Debug("ingestion.parse.syntax_errors", "path", filePath, "language", lang)
	}
	if w.truncated > 0 {
		e.truncated.Add(int64(w.truncated))
		for i := 0; i < w.truncated; i++ {
			recordTruncated()
		}
	}
	recordFileParsed(lang, time.Since(start))
	recordSymbols(w.symbols)
	return res, nil
}

func (e *Extractor) skip(filePath string, lang Language, reason SkipReason) *FileParse {
	recordFileSkipped(reason)
	e.logger.Debug("ingestion.parse.skip", "path", filePath, "language", lang, "reason", reason)
	return &FileParse{Language: lang, Skipped: reason}
}

// TruncatedCount returns how many symbol bodies have been truncated.
func (e *Extractor) TruncatedCount() int { return int(e.truncated.Load()) }

// ResetTruncatedCount zeroes the truncation counter.
func (e *Extractor) ResetTruncatedCount() { e.truncated.Store(0) }
