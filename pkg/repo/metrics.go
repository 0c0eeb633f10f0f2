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

package repo

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsRepo struct {
	once sync.Once

	clones        *prometheus.CounterVec
	cloneDuration prometheus.Histogram
	checkoutBytes prometheus.Histogram
	pulls         *prometheus.CounterVec
}

var repoMetrics metricsRepo

func (m *metricsRepo) init() {
	m.once.Do(func() {
		m.clones = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_repo_clones_total", Help: "Clone attempts, by result"}, []string{"result"})
		m.cloneDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "symdex_repo_clone_duration_seconds", Help: "Wall time of git clone", Buckets: prometheus.ExponentialBuckets(0.25, 2, 12)})
		m.checkoutBytes = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "symdex_repo_checkout_bytes", Help: "On-disk size of completed checkouts", Buckets: prometheus.ExponentialBuckets(1<<16, 4, 10)})
		m.pulls = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_repo_pulls_total", Help: "Pull attempts, by result"}, []string{"result"})
		prometheus.MustRegister(m.clones, m.cloneDuration, m.checkoutBytes, m.pulls)
	})
}

func recordClone(result string, d time.Duration) {
	repoMetrics.init()
	repoMetrics.clones.WithLabelValues(result).Inc()
	repoMetrics.cloneDuration.Observe(d.Seconds())
}

func recordCheckoutSize(bytes int64) {
	repoMetrics.init()
	repoMetrics.checkoutBytes.Observe(float64(bytes))
}

func recordPull(result string) {
	repoMetrics.init()
	repoMetrics.pulls.WithLabelValues(result).Inc()
}
