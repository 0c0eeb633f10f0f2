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

package storage

import (
	"context"

	"github.com/kraklabs/symdex/pkg/ingestion"
)

// Store is the interface that all symbol index stores must implement.
// Published indexes are immutable; a store only ever replaces them whole.
type Store interface {
	// Load returns the current index for a project.
	Load(projectID string) (*ingestion.ProjectSymbolIndex, bool)

	// Swap publishes idx as the current index of idx.ProjectID and returns
	// the index it replaced, if any.
	Swap(idx *ingestion.ProjectSymbolIndex) *ingestion.ProjectSymbolIndex

	// Delete drops the index of a project and reports whether one existed.
	Delete(projectID string) bool

	// Projects lists the project ids with a published index, sorted.
	Projects() []string

	// LockProject serialises writers of one project. Readers never take it.
	LockProject(ctx context.Context, projectID string) (unlock func(), err error)

	// Stats reports cache counters.
	Stats() Stats

	// Close releases any resources held by the store.
	Close() error
}

// Stats are the cache counters of a store.
type Stats struct {
	Projects  int   `json:"projects"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}
