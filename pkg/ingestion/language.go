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
	"path/filepath"
	"sort"
	"strings"
)

// Language identifies a source language with a registered grammar.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangRust       Language = "rust"
)

// extensionTable maps lowercase file extensions to languages.
var extensionTable = map[string]Language{
	".py":   LangPython,
	".pyi":  LangPython,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".mts":  LangTypeScript,
	".cts":  LangTypeScript,
	".tsx":  LangTSX,
	".go":   LangGo,
	".java": LangJava,
	".rs":   LangRust,
}

// DetectLanguage returns the language for filePath, or "" when the
// extension is not recognised. An unknown extension is not an error.
func DetectLanguage(filePath string) Language {
	ext := strings.ToLower(filepath.Ext(filePath))
	return extensionTable[ext]
}

// Extensions returns the file extensions registered for lang, sorted.
func Extensions(lang Language) []string {
	var exts []string
	for ext, l := range extensionTable {
		if l == lang {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// DefaultIncludePatterns returns one "*.ext" glob per supported extension.
func DefaultIncludePatterns() []string {
	patterns := make([]string, 0, len(extensionTable))
	for ext := range extensionTable {
		patterns = append(patterns, "*"+ext)
	}
	sort.Strings(patterns)
	return patterns
}

// DefaultExcludePatterns are the directories and artifacts skipped by default.
func DefaultExcludePatterns() []string {
	return []string{
		".git/**",
		".hg/**",
		".svn/**",
		"node_modules/**",
		"__pycache__/**",
		".venv/**",
		"venv/**",
		".tox/**",
		".mypy_cache/**",
		"vendor/**",
		"dist/**",
		"build/**",
		"target/**",
		"*.min.js",
	}
}
