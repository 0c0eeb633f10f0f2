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
	"sync"
	"sync/atomic"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammarRegistry_InitialisesOnce(t *testing.T) {
	var calls atomic.Int32
	reg := NewGrammarRegistry(nil, map[Language]GrammarLoader{
		LangPython: func() *sitter.Language {
			calls.Add(1)
			return python.GetLanguage()
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, reg.Available(LangPython))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	tree, err := reg.Parse(context.Background(), LangPython, []byte("x = 1\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "module", tree.RootNode().Type())
	assert.Equal(t, int32(1), calls.Load())
}

func TestGrammarRegistry_FailedLoaderDegrades(t *testing.T) {
	var calls atomic.Int32
	reg := NewGrammarRegistry(nil, map[Language]GrammarLoader{
		LangPython: func() *sitter.Language {
			calls.Add(1)
			panic("grammar abi mismatch")
		},
		LangGo: func() *sitter.Language { return nil },
	})

	assert.False(t, reg.Available(LangPython))
	assert.False(t, reg.Available(LangPython))
	assert.Equal(t, int32(1), calls.Load(), "a failed grammar is not retried")
	assert.False(t, reg.Available(LangGo))

	_, err := reg.Grammar(LangPython)
	assert.ErrorIs(t, err, ErrGrammarUnavailable)
	_, err = reg.Parse(context.Background(), LangGo, []byte("package x"))
	assert.ErrorIs(t, err, ErrGrammarUnavailable)

	_, err = reg.Grammar(LangRust)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	ex := NewExtractor(reg, ExtractorConfig{}, nil)
	res, err := ex.ParseFileDetailed(context.Background(), "a.py", []byte("def a(): pass"))
	require.NoError(t, err)
	assert.Equal(t, SkipGrammarUnavailable, res.Skipped)
	assert.Empty(t, res.Symbols)
}

func TestGrammarRegistry_DefaultLanguages(t *testing.T) {
	reg := NewGrammarRegistry(nil, nil)
	assert.Equal(t,
		[]Language{LangGo, LangJava, LangJavaScript, LangPython, LangRust, LangTSX, LangTypeScript},
		reg.Languages())
	for _, lang := range reg.Languages() {
		assert.True(t, reg.Available(lang), "grammar %s should load", lang)
		_, ok := languageRules[lang]
		assert.True(t, ok, "language %s needs extraction rules", lang)
	}
}
