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

// Package storage holds published symbol indexes for symdex.
//
// A Store maps a project id to the most recently published
// ingestion.ProjectSymbolIndex. Indexes are immutable once published;
// re-indexing builds a new one and swaps it in, so readers observe either
// the previous index or the new one in full.
//
// # Memory Store
//
// MemoryStore keeps every index in process memory:
//
//	store := storage.NewMemoryStore(storage.MemoryConfig{MaxProjects: 8})
//	defer store.Close()
//
//	unlock, err := store.LockProject(ctx, "myproject")
//	if err != nil {
//	    return err
//	}
//	prev := store.Swap(idx)
//	unlock()
//
//	if idx, ok := store.Load("myproject"); ok {
//	    fmt.Println(idx.SymbolCount())
//	}
//
// With MaxProjects set, loading or publishing a project marks it as most
// recently used and the least recently used project is evicted once the
// bound is exceeded. MaxProjects 0 never evicts.
//
// # Keyed Locks
//
// KeyedMutex serialises work per key (a project id or a checkout path).
// Waiting honours context cancellation, and entries are released when the
// last holder or waiter is done, so the set does not grow with the number of
// keys ever seen.
//
// # Metrics
//
//   - symdex_cache_lookups_total{result}
//   - symdex_cache_evictions_total
package storage
