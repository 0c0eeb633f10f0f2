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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsSymbols struct {
	once sync.Once

	builds         *prometheus.CounterVec
	buildDuration  prometheus.Histogram
	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
}

var symMetrics metricsSymbols

func (m *metricsSymbols) init() {
	m.once.Do(func() {
		m.builds = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_index_builds_total", Help: "Index builds, by result"}, []string{"result"})
		m.buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "symdex_index_build_duration_seconds", Help: "Wall time of successful index builds", Buckets: prometheus.ExponentialBuckets(0.01, 2, 14)})
		m.searches = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_searches_total", Help: "Symbol searches, by mode"}, []string{"mode"})
		m.searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "symdex_search_duration_seconds", Help: "Search latency", Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10)})
		prometheus.MustRegister(m.builds, m.buildDuration, m.searches, m.searchDuration)
	})
}

func recordIndexBuild(result string, d time.Duration) {
	symMetrics.init()
	symMetrics.builds.WithLabelValues(result).Inc()
	if result == "success" {
		symMetrics.buildDuration.Observe(d.Seconds())
	}
}

func recordSearch(fuzzy bool, d time.Duration) {
	symMetrics.init()
	mode := "exact"
	if fuzzy {
		mode = "fuzzy"
	}
	symMetrics.searches.WithLabelValues(mode).Inc()
	symMetrics.searchDuration.Observe(d.Seconds())
}
