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
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// GrammarLoader returns the compiled grammar for one language.
type GrammarLoader func() *sitter.Language

// DefaultGrammarLoaders returns the built-in grammar for every supported language.
func DefaultGrammarLoaders() map[Language]GrammarLoader {
	return map[Language]GrammarLoader{
		LangPython:     python.GetLanguage,
		LangJavaScript: javascript.GetLanguage,
		LangTypeScript: typescript.GetLanguage,
		LangTSX:        tsx.GetLanguage,
		LangGo:         golang.GetLanguage,
		LangJava:       java.GetLanguage,
		LangRust:       rust.GetLanguage,
	}
}

type grammarEntry struct {
	lang   Language
	load   GrammarLoader
	once   sync.Once
	loaded *sitter.Language
	err    error
	pool   sync.Pool
}

// GrammarRegistry lazily initialises tree-sitter grammars and hands out
// parsers for them. It is safe for concurrent use.
//
// Each grammar is loaded at most once. A loader that panics or returns nil
// leaves the language permanently unavailable for the registry's lifetime.
// Parsers carry mutable state, so they are pooled per language and never
// shared between concurrent parses.
type GrammarRegistry struct {
	logger  *slog.Logger
	entries map[Language]*grammarEntry
}

// NewGrammarRegistry creates a registry over loaders. A nil map installs
// DefaultGrammarLoaders.
func NewGrammarRegistry(logger *slog.Logger, loaders map[Language]GrammarLoader) *GrammarRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	if loaders == nil {
		loaders = DefaultGrammarLoaders()
	}
	r := &GrammarRegistry{
		logger:  logger,
		entries: make(map[Language]*grammarEntry, len(loaders)),
	}
	for lang, load := range loaders {
		r.entries[lang] = &grammarEntry{lang: lang, load: load}
	}
	return r
}

// Languages lists the registered languages, sorted.
func (r *GrammarRegistry) Languages() []Language {
	langs := make([]Language, 0, len(r.entries))
	for lang := range r.entries {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Available reports whether lang has a registered grammar that loads.
// The first call for a language triggers its initialisation.
func (r *GrammarRegistry) Available(lang Language) bool {
	_, err := r.grammar(lang)
	return err == nil
}

// Grammar returns the initialised grammar for lang.
func (r *GrammarRegistry) Grammar(lang Language) (*sitter.Language, error) {
	return r.grammar(lang)
}

func (r *GrammarRegistry) grammar(lang Language) (*sitter.Language, error) {
	e, ok := r.entries[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	e.once.Do(func() { r.initEntry(e) })
	return e.loaded, e.err
}

func (r *GrammarRegistry) initEntry(e *grammarEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			e.loaded = nil
			e.err = fmt.Errorf("%w: %s: loader panicked: %v", ErrGrammarUnavailable, e.lang, rec)
		}
		if e.err != nil {
			recordGrammarInitFailure(e.lang)
			r.logger.Warn("ingestion.grammar.unavailable", "language", e.lang, "err", e.err)
			return
		}
		r.logger.Debug("ingestion.grammar.loaded", "language", e.lang)
	}()

	if e.load == nil {
		e.err = fmt.Errorf("%w: %s: no loader", ErrGrammarUnavailable, e.lang)
		return
	}
	lang := e.load()
	if lang == nil {
		e.err = fmt.Errorf("%w: %s: loader returned nil", ErrGrammarUnavailable, e.lang)
		return
	}
	e.loaded = lang
	e.pool.New = func() any {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		return p
	}
}

// Parse parses src with the grammar for lang. The caller owns the returned
// tree and must Close it.
func (r *GrammarRegistry) Parse(ctx context.Context, lang Language, src []byte) (*sitter.Tree, error) {
	if _, err := r.grammar(lang); err != nil {
		return nil, err
	}
	e := r.entries[lang]
	parser := e.pool.Get().(*sitter.Parser)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		// A cancelled parse can leave the parser mid-operation; drop it.
		parser.Close()
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	parser.Reset()
	e.pool.Put(parser)
	return tree, nil
}
