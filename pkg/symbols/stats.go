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
	"time"

	"github.com/kraklabs/symdex/pkg/ingestion"
)

// IndexStats describes the published index of a project.
type IndexStats struct {
	ProjectID  string         `json:"project_id"`
	BuildID    string         `json:"build_id"`
	BuiltAt    time.Time      `json:"built_at"`
	RepoPath   string         `json:"repo_path,omitempty"`
	Files      int            `json:"files"`
	Symbols    int            `json:"symbols"`
	Failures   int            `json:"failures"`
	ByKind     map[string]int `json:"by_kind"`
	ByLanguage map[string]int `json:"by_language"`
}

// Stats counts the symbols of the published index by kind and by language.
// It reports false when the project has not been indexed.
func (x *Index) Stats() (IndexStats, bool) {
	idx, ok := x.store.Load(x.projectID)
	if !ok {
		return IndexStats{}, false
	}
	st := IndexStats{
		ProjectID:  idx.ProjectID,
		BuildID:    idx.BuildID,
		BuiltAt:    idx.BuiltAt,
		RepoPath:   idx.RepoPath,
		Files:      idx.FileCount,
		Symbols:    idx.SymbolCount(),
		Failures:   len(idx.Failures),
		ByKind:     make(map[string]int),
		ByLanguage: make(map[string]int),
	}
	for _, fs := range idx.Files {
		n := 0
		for _, sym := range fs.Symbols {
			sym.Walk(func(s *ingestion.CodeSymbol) bool {
				st.ByKind[string(s.Kind)]++
				n++
				return true
			})
		}
		lang := string(fs.Language)
		if lang == "" {
			lang = "unknown"
		}
		st.ByLanguage[lang] += n
	}
	return st, true
}
