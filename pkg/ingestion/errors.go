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

import "errors"

var (
	// ErrUnsupportedLanguage means no grammar is registered for the file's extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrGrammarUnavailable means the grammar for a known language failed to load.
	ErrGrammarUnavailable = errors.New("grammar unavailable")

	// ErrDecode means the content is not valid UTF-8 text.
	ErrDecode = errors.New("content is not valid UTF-8 text")

	// ErrFileTooLarge means the file exceeds the configured parse ceiling.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// SkipReason explains why a file produced no symbols without failing.
type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipUnsupportedLanguage SkipReason = "unsupported_language"
	SkipGrammarUnavailable  SkipReason = "grammar_unavailable"
	SkipTooLarge            SkipReason = "too_large"
	SkipDecode              SkipReason = "decode_error"
)

// Err returns the sentinel error describing the skip, or nil.
func (r SkipReason) Err() error {
	switch r {
	case SkipUnsupportedLanguage:
		return ErrUnsupportedLanguage
	case SkipGrammarUnavailable:
		return ErrGrammarUnavailable
	case SkipTooLarge:
		return ErrFileTooLarge
	case SkipDecode:
		return ErrDecode
	}
	return nil
}
