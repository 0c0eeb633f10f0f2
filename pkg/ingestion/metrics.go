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

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the extraction subsystem.
type metricsIngestion struct {
	once sync.Once

	filesParsed    *prometheus.CounterVec
	filesSkipped   *prometheus.CounterVec
	symbols        *prometheus.CounterVec
	grammarFailure *prometheus.CounterVec
	truncated      prometheus.Counter

	parseDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.filesParsed = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_ing_files_parsed_total", Help: "Files parsed, by language"}, []string{"language"})
		m.filesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_ing_files_skipped_total", Help: "Files skipped without symbols, by reason"}, []string{"reason"})
		m.symbols = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_ing_symbols_extracted_total", Help: "Symbols extracted, by kind"}, []string{"kind"})
		m.grammarFailure = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "symdex_ing_grammar_init_failures_total", Help: "Grammars that failed to initialise"}, []string{"language"})
		m.truncated = prometheus.NewCounter(prometheus.CounterOpts{Name: "symdex_ing_bodies_truncated_total", Help: "Symbol bodies truncated to the size limit"})

		buckets := []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "symdex_ing_parse_seconds", Help: "Per-file parse and extraction duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesParsed, m.filesSkipped, m.symbols, m.grammarFailure, m.truncated,
			m.parseDuration,
		)
	})
}

func recordFileParsed(lang Language, d time.Duration) {
	ingMetrics.init()
	ingMetrics.filesParsed.WithLabelValues(string(lang)).Inc()
	ingMetrics.parseDuration.Observe(d.Seconds())
}

func recordFileSkipped(reason SkipReason) {
	ingMetrics.init()
	ingMetrics.filesSkipped.WithLabelValues(string(reason)).Inc()
}

func recordSymbols(symbols []*CodeSymbol) {
	ingMetrics.init()
	for _, s := range symbols {
		ingMetrics.symbols.WithLabelValues(string(s.Kind)).Inc()
	}
}

func recordGrammarInitFailure(lang Language) {
	ingMetrics.init()
	ingMetrics.grammarFailure.WithLabelValues(string(lang)).Inc()
}

func recordTruncated() { ingMetrics.init(); ingMetrics.truncated.Inc() }
