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
	"strings"
	"unicode/utf8"
)

// Score weights for name matching.
const (
	ScoreExact     = 1.0
	ScorePrefix    = 0.9
	ScoreSubstring = 0.7
	// FuzzyWeight scales a subsequence score into the final score.
	FuzzyWeight = 0.6
	// FuzzyThreshold is the subsequence score a fuzzy match must exceed.
	FuzzyThreshold = 0.5
)

// MatchScore scores target against query, case-insensitively:
//
//	1.0  exact match
//	0.9  target starts with query
//	0.7  target contains query
//	0.6 * s  when fuzzy, query is an in-order subsequence of target and
//	         s = SubsequenceScore(query, target) exceeds 0.5
//
// Anything else scores 0.
func MatchScore(query, target string, fuzzy bool) float64 {
	q := strings.ToLower(query)
	t := strings.ToLower(target)

	switch {
	case q == t:
		return ScoreExact
	case strings.HasPrefix(t, q):
		return ScorePrefix
	case strings.Contains(t, q):
		return ScoreSubstring
	case !fuzzy:
		return 0
	}
	if s := subsequenceScore(q, t); s > FuzzyThreshold {
		return s * FuzzyWeight
	}
	return 0
}

// SubsequenceScore returns the number of query characters matched in order
// within target divided by the length of target, or 0 when query is not an
// in-order subsequence of target. Comparison is case-insensitive and counts
// runes. An empty query scores 1.
func SubsequenceScore(query, target string) float64 {
	return subsequenceScore(strings.ToLower(query), strings.ToLower(target))
}

func subsequenceScore(query, target string) float64 {
	if query == "" {
		return 1
	}
	targetLen := utf8.RuneCountInString(target)
	if targetLen == 0 {
		return 0
	}

	matched := 0
	rest := query
	for _, r := range target {
		if rest == "" {
			break
		}
		qr, size := utf8.DecodeRuneInString(rest)
		if r == qr {
			matched++
			rest = rest[size:]
		}
	}
	if rest != "" {
		return 0
	}
	return float64(matched) / float64(targetLen)
}
