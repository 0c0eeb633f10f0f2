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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsStorage struct {
	once sync.Once

	lookups   *prometheus.CounterVec
	evictions prometheus.Counter
}

var storeMetrics metricsStorage

func (m *metricsStorage) init() {
	m.once.Do(func() {
		m.lookups = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_cache_lookups_total", Help: "Index cache lookups, by result"}, []string{"result"})
		m.evictions = prometheus.NewCounter(prometheus.CounterOpts{Name: "symdex_cache_evictions_total", Help: "Project indexes evicted from the cache"})
		prometheus.MustRegister(m.lookups, m.evictions)
	})
}

func recordCacheLookup(hit bool) {
	storeMetrics.init()
	result := "miss"
	if hit {
		result = "hit"
	}
	storeMetrics.lookups.WithLabelValues(result).Inc()
}

func recordEviction() { storeMetrics.init(); storeMetrics.evictions.Inc() }
