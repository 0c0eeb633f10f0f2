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
	"strings"
)

// MatchAny reports whether the slash-normalised path matches any pattern.
func MatchAny(path string, patterns []string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if MatchGlob(normalized, pattern) {
			return true
		}
	}
	return false
}

// MatchGlob matches a slash-separated relative path against a glob pattern.
//
// Supported syntax:
//   - * : any sequence of non-separator characters
//   - ** : any sequence of characters, separators included
//   - ? : one non-separator character
//   - [abc], [a-z], [!abc], [^abc] : character classes
//
// A pattern that does not start with "**/" may match any suffix of the path,
// so "test.go" matches "a/b/test.go" and "bin/**" matches "apps/x/bin".
// An empty pattern matches nothing.
func MatchGlob(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	if pattern == "" {
		return false
	}

	// dir/** : the directory itself and everything below it, at any depth.
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		for _, sub := range pathSuffixes(path) {
			if sub == prefix || strings.HasPrefix(sub, prefix+"/") {
				return true
			}
		}
	}

	// *.ext : extension match on the final component.
	if strings.HasPrefix(pattern, "*.") && !strings.ContainsAny(pattern[1:], "/*?[") {
		return strings.HasSuffix(path, pattern[1:])
	}

	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		if path == rest || strings.HasSuffix(path, "/"+rest) {
			return true
		}
		for _, sub := range pathSuffixes(path) {
			if matchGlobPattern(sub, rest) {
				return true
			}
		}
		return false
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return path == pattern || strings.HasSuffix(path, "/"+pattern) || strings.HasPrefix(path, pattern+"/")
	}

	for _, sub := range pathSuffixes(path) {
		if matchGlobPattern(sub, pattern) {
			return true
		}
	}
	return false
}

// pathSuffixes returns path and every suffix of it that starts at a
// component boundary: "a/b/c" yields "a/b/c", "b/c", "c".
func pathSuffixes(path string) []string {
	out := []string{path}
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && i+1 < len(path) {
			out = append(out, path[i+1:])
		}
	}
	return out
}

// matchGlobPattern anchors pattern at the start of path.
func matchGlobPattern(path, pattern string) bool {
	return matchGlobRecursive(path, pattern, 0, 0)
}

func matchGlobRecursive(path, pattern string, pi, pti int) bool {
	for pi < len(path) || pti < len(pattern) {
		if pti >= len(pattern) {
			return false
		}

		switch {
		case pattern[pti] == '*' && pti+1 < len(pattern) && pattern[pti+1] == '*':
			next := pti + 2
			if next < len(pattern) && pattern[next] == '/' {
				next++
			}
			if next >= len(pattern) {
				return true
			}
			for i := pi; i <= len(path); i++ {
				if matchGlobRecursive(path, pattern, i, next) {
					return true
				}
			}
			return false

		case pattern[pti] == '*':
			next := pti + 1
			for i := pi; i <= len(path); i++ {
				if i > pi && path[i-1] == '/' {
					break
				}
				if matchGlobRecursive(path, pattern, i, next) {
					return true
				}
			}
			return false

		case pattern[pti] == '?':
			if pi >= len(path) || path[pi] == '/' {
				return false
			}
			pi++
			pti++

		case pattern[pti] == '[':
			if pi >= len(path) {
				return false
			}
			end := classEnd(pattern, pti)
			if end < 0 {
				// Unterminated class: treat '[' literally.
				if path[pi] != '[' {
					return false
				}
				pi++
				pti++
				continue
			}
			if !matchCharClass(path[pi], pattern[pti+1:end]) {
				return false
			}
			pi++
			pti = end + 1

		default:
			if pi >= len(path) || path[pi] != pattern[pti] {
				return false
			}
			pi++
			pti++
		}
	}
	return true
}

// classEnd returns the index of the ']' closing the class opened at start,
// or -1 if the class is unterminated. A ']' right after '[' or '[!' is literal.
func classEnd(pattern string, start int) int {
	i := start + 1
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		i++
	}
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for i < len(pattern) && pattern[i] != ']' {
		i++
	}
	if i >= len(pattern) {
		return -1
	}
	return i
}

// matchCharClass checks c against the body of a bracket expression.
func matchCharClass(c byte, class string) bool {
	if class == "" {
		return false
	}
	negated := false
	idx := 0
	if class[0] == '!' || class[0] == '^' {
		negated = true
		idx = 1
	}

	matched := false
	for idx < len(class) {
		if idx+2 < len(class) && class[idx+1] == '-' {
			if c >= class[idx] && c <= class[idx+2] {
				matched = true
			}
			idx += 3
			continue
		}
		if c == class[idx] {
			matched = true
		}
		idx++
	}
	return matched != negated
}
