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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symdex/internal/output"
	"github.com/kraklabs/symdex/internal/ui"
	"github.com/kraklabs/symdex/pkg/symbols"
)

// indexArgs holds the parsed flags shared by commands that build an index.
type indexArgs struct {
	include []string
	exclude []string
	timeout time.Duration
}

// indexSummary is the output of 'symdex index'.
type indexSummary struct {
	*symbols.IndexResult
	Stats symbols.IndexStats `json:"stats"`
}

// addIndexFlags registers the file selection and timeout flags.
func addIndexFlags(fs *flag.FlagSet) *indexArgs {
	ia := &indexArgs{}
	fs.StringSliceVar(&ia.include, "include", nil, "Glob of files to index (repeatable; default: all supported languages)")
	fs.StringSliceVar(&ia.exclude, "exclude", nil, "Glob of files to skip (repeatable; default: vendored and generated code)")
	fs.DurationVar(&ia.timeout, "timeout", 0, "Abort indexing after this long (0 = no limit)")
	return ia
}

// runIndex executes the 'index' CLI command, building the symbol index of
// a checkout and printing a summary.
//
// Flags:
//   - --include / --exclude: file globs (repeatable)
//   - --timeout: abort after a duration
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	symdex index symdex
//	symdex index ./checkout --include '*.py' --exclude 'tests/*'
//	symdex index symdex --metrics-addr :9090
func runIndex(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	ia := addIndexFlags(fs)
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	addJSONFlag(fs, &globals)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex index <path|name> [options]

Parses every supported source file of a checkout and prints symbol counts
by kind and language. Files that fail to parse are listed, not fatal.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 1, globals, "index needs a checkout path or name")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, a.logger)
	}

	progress, finish := parseProgress(a.progress)
	summary, err := indexCheckout(ctx, a, rest[0], *ia, progress)
	finish()
	if err != nil {
		a.fail(err, "Cannot index repository")
	}
	if err := a.out.Emit(summary, func(w io.Writer) error {
		return printIndexSummary(w, summary)
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

// serveMetrics exposes the Prometheus registry on addr for the lifetime of
// the process.
func serveMetrics(addr string, logger *slog.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}

// buildIndex resolves a checkout and indexes it.
func buildIndex(ctx context.Context, a *app, pathOrName string, ia indexArgs, progress symbols.ProgressFunc) (*symbols.Index, *symbols.IndexResult, error) {
	path, err := a.pipeline.ResolveCheckout(pathOrName)
	if err != nil {
		return nil, nil, err
	}
	idx, err := a.pipeline.IndexWithProgress(path, progress)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := withTimeout(ctx, ia.timeout)
	defer cancel()
	res, err := idx.IndexRepository(ctx, path, ia.include, ia.exclude)
	if err != nil {
		return nil, nil, err
	}
	return idx, res, nil
}

func indexCheckout(ctx context.Context, a *app, pathOrName string, ia indexArgs, progress symbols.ProgressFunc) (*indexSummary, error) {
	idx, res, err := buildIndex(ctx, a, pathOrName, ia, progress)
	if err != nil {
		return nil, err
	}
	stats, _ := idx.Stats()
	return &indexSummary{IndexResult: res, Stats: stats}, nil
}

func printIndexSummary(w io.Writer, s *indexSummary) error {
	ui.Header("Index Summary")
	fmt.Fprintf(w, "%s %s\n", ui.Label("Project:"), s.Stats.ProjectID)
	fmt.Fprintf(w, "%s %s\n", ui.Label("Root:   "), ui.DimText(s.Stats.RepoPath))
	fmt.Fprintf(w, "%s %s\n", ui.Label("Files:  "), ui.CountText(s.FilesIndexed))
	fmt.Fprintf(w, "%s %s\n", ui.Label("Symbols:"), ui.CountText(s.SymbolsExtracted))
	fmt.Fprintf(w, "%s %s\n", ui.Label("Took:   "), s.Duration.Round(time.Millisecond))

	writeCounts(w, "By language:", s.Stats.ByLanguage)
	writeCounts(w, "By kind:", s.Stats.ByKind)
	writeCounts(w, "Skipped:", s.SkipReasons)

	if len(s.Failures) > 0 {
		fmt.Fprintln(w)
		ui.Warningf("%d files failed to parse", len(s.Failures))
		for _, f := range s.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.FilePath, f.Error)
		}
	}
	if s.Truncated > 0 {
		ui.Warningf("%d symbol bodies truncated", s.Truncated)
	}
	return nil
}

// writeCounts prints a titled table of counts, largest first.
func writeCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintln(w)
	ui.SubHeader(title)
	tbl := output.NewTable()
	for _, k := range keys {
		tbl.Row("  "+k, fmt.Sprint(counts[k]))
	}
	_, _ = tbl.WriteTo(w)
}
