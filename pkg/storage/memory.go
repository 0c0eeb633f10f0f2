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
	"container/list"
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/kraklabs/symdex/pkg/ingestion"
)

// MemoryConfig configures a MemoryStore.
type MemoryConfig struct {
	// MaxProjects bounds the number of cached projects. When the bound is
	// exceeded the least recently used project is evicted. 0 means unbounded.
	MaxProjects int
	Logger      *slog.Logger
}

type slot struct {
	projectID string
	current   atomic.Pointer[ingestion.ProjectSymbolIndex]
	elem      *list.Element
}

// MemoryStore keeps one published index per project in memory.
//
// Each project has a slot holding an atomic pointer. Publishing swaps the
// pointer, so a reader sees either the old index or the new one, never a
// mix. Writers of the same project are serialised with LockProject.
type MemoryStore struct {
	mu       sync.RWMutex
	slots    map[string]*slot
	lruMu    sync.Mutex
	lru      *list.List
	capacity int

	writers *KeyedMutex
	logger  *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(config MemoryConfig) *MemoryStore {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capacity := config.MaxProjects
	if capacity < 0 {
		capacity = 0
	}
	return &MemoryStore{
		slots:    make(map[string]*slot),
		lru:      list.New(),
		capacity: capacity,
		writers:  NewKeyedMutex(),
		logger:   logger,
	}
}

// Load returns the current index of projectID.
func (s *MemoryStore) Load(projectID string) (*ingestion.ProjectSymbolIndex, bool) {
	s.mu.RLock()
	sl, ok := s.slots[projectID]
	s.mu.RUnlock()
	if !ok {
		s.misses.Add(1)
		recordCacheLookup(false)
		return nil, false
	}
	idx := sl.current.Load()
	if idx == nil {
		s.misses.Add(1)
		recordCacheLookup(false)
		return nil, false
	}
	s.touch(sl)
	s.hits.Add(1)
	recordCacheLookup(true)
	return idx, true
}

// Swap publishes idx and returns the index it replaced.
func (s *MemoryStore) Swap(idx *ingestion.ProjectSymbolIndex) *ingestion.ProjectSymbolIndex {
	if idx == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.slots[idx.ProjectID]; ok {
		prev := sl.current.Swap(idx)
		s.touch(sl)
		return prev
	}

	sl := &slot{projectID: idx.ProjectID}
	sl.current.Store(idx)
	s.lruMu.Lock()
	sl.elem = s.lru.PushFront(sl)
	s.lruMu.Unlock()
	s.slots[idx.ProjectID] = sl
	s.evictLocked()
	return nil
}

// evictLocked drops least recently used projects beyond capacity.
// Caller holds s.mu.
func (s *MemoryStore) evictLocked() {
	if s.capacity == 0 {
		return
	}
	s.lruMu.Lock()
	defer s.lruMu.Unlock()
	for s.lru.Len() > s.capacity {
		last := s.lru.Back()
		if last == nil {
			break
		}
		victim := last.Value.(*slot)
		s.lru.Remove(last)
		delete(s.slots, victim.projectID)
		s.evictions.Add(1)
		recordEviction()
		s.logger.Info("storage.cache.evict", "project_id", victim.projectID)
	}
}

func (s *MemoryStore) touch(sl *slot) {
	if s.capacity == 0 {
		return
	}
	s.lruMu.Lock()
	// MoveToFront is a no-op for an element already evicted from the list.
	s.lru.MoveToFront(sl.elem)
	s.lruMu.Unlock()
}

// Delete drops the index of projectID.
func (s *MemoryStore) Delete(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[projectID]
	if !ok {
		return false
	}
	delete(s.slots, projectID)
	s.lruMu.Lock()
	s.lru.Remove(sl.elem)
	s.lruMu.Unlock()
	return true
}

// Projects lists cached project ids, sorted.
func (s *MemoryStore) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LockProject blocks until the caller is the only writer of projectID or
// ctx is done.
func (s *MemoryStore) LockProject(ctx context.Context, projectID string) (func(), error) {
	return s.writers.Lock(ctx, projectID)
}

// Stats reports cache counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	n := len(s.slots)
	s.mu.RUnlock()
	return Stats{
		Projects:  n,
		Capacity:  s.capacity,
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
}

// Close drops every cached index.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[string]*slot)
	s.lruMu.Lock()
	s.lru.Init()
	s.lruMu.Unlock()
	return nil
}
