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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		target string
		fuzzy  bool
		want   float64
	}{
		{"exact", "alpha", "alpha", true, 1.0},
		{"exact ignores case", "ALPHA", "Alpha", false, 1.0},
		{"prefix", "alp", "alpha", true, 0.9},
		{"prefix without fuzzy", "alp", "alpha", false, 0.9},
		{"substring", "pha", "alpha", true, 0.7},
		{"substring ignores case", "PHA", "alPHa", false, 0.7},
		{"subsequence", "alh", "alpha", true, 0.36},
		{"subsequence needs fuzzy", "alh", "alpha", false, 0},
		{"subsequence at threshold", "ab", "axxb", true, 0},
		{"sparse subsequence", "ab", "axxxxb", true, 0},
		{"not a subsequence", "ax", "alpha", true, 0},
		{"query longer than target", "alphabet", "alpha", true, 0},
		{"empty query is a prefix", "", "alpha", true, 0.9},
		{"unicode prefix", "ÄB", "äbc", false, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MatchScore(tt.query, tt.target, tt.fuzzy), 1e-9)
		})
	}
}

func TestSubsequenceScore(t *testing.T) {
	assert.InDelta(t, 0.6, SubsequenceScore("alh", "alpha"), 1e-9)
	assert.InDelta(t, 0.6, SubsequenceScore("ALH", "Alpha"), 1e-9)
	assert.Zero(t, SubsequenceScore("xyz", "alpha"))
	assert.Zero(t, SubsequenceScore("a", ""))
	assert.Equal(t, 1.0, SubsequenceScore("", "alpha"))
	// Counted in runes, not bytes.
	assert.InDelta(t, 2.0/3.0, SubsequenceScore("żb", "żab"), 1e-9)
}

// A query that only matches as a subsequence always scores below 0.6, and so
// below every exact, prefix and substring match.
func TestMatchScore_FuzzyBelowLiteralMatches(t *testing.T) {
	targets := []string{"parse", "parser", "reparse", "p_a_r_s_e", "prs", "PaRsEr", "spread", "repairs"}
	queries := []string{"prs", "pr", "ps", "rse", "pae", "prse"}
	for _, q := range queries {
		for _, target := range targets {
			score := MatchScore(q, target, true)
			exact := MatchScore(q, target, false)
			if exact == 0 && score > 0 {
				assert.Less(t, score, FuzzyWeight, "%q vs %q", q, target)
				assert.Less(t, score, ScoreSubstring)
			}
			assert.False(t, math.IsNaN(score))
		}
	}
}
