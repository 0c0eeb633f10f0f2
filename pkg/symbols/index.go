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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/symdex/pkg/ingestion"
	"github.com/kraklabs/symdex/pkg/storage"
)

// Config configures an Index.
type Config struct {
	// Workers bounds concurrent file parses. 0 uses GOMAXPROCS.
	Workers int
	// DefaultInclude is used when IndexRepository gets no include patterns.
	// Nil selects ingestion.DefaultIncludePatterns.
	DefaultInclude []string
	// DefaultExclude is used when IndexRepository gets no exclude patterns.
	// Nil selects ingestion.DefaultExcludePatterns.
	DefaultExclude []string
	// MaxFileSizeBytes skips larger files during discovery. 0 disables the
	// check here; the extractor applies its own ceiling.
	MaxFileSizeBytes int64
	// RespectGitignore drops files matched by the repository's .gitignore.
	RespectGitignore bool
	// Progress, when set, is called after each file is parsed. It may be
	// called from several goroutines at once.
	Progress ProgressFunc
}

// ProgressFunc receives the number of parsed files and the total.
type ProgressFunc func(done, total int)

// Index builds and queries the symbol index of one project. The published
// index lives in a storage.Store; builds replace it atomically, so
// concurrent queries see either the previous build or the new one.
type Index struct {
	projectID string
	parser    ingestion.SymbolParser
	store     storage.Store
	config    Config
	logger    *slog.Logger
}

// New creates an Index for projectID. A nil store gets a private unbounded
// storage.MemoryStore.
func New(projectID string, parser ingestion.SymbolParser, store storage.Store, config Config, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = storage.NewMemoryStore(storage.MemoryConfig{Logger: logger})
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.DefaultInclude == nil {
		config.DefaultInclude = ingestion.DefaultIncludePatterns()
	}
	if config.DefaultExclude == nil {
		config.DefaultExclude = ingestion.DefaultExcludePatterns()
	}
	return &Index{
		projectID: projectID,
		parser:    parser,
		store:     store,
		config:    config,
		logger:    logger.With("project_id", projectID),
	}
}

// ProjectID returns the project the index is bound to.
func (x *Index) ProjectID() string { return x.projectID }

// Current returns a copy of the published index.
func (x *Index) Current() (*ingestion.ProjectSymbolIndex, bool) {
	idx, ok := x.store.Load(x.projectID)
	if !ok {
		return nil, false
	}
	return idx.Clone(), true
}

// IndexResult summarises one IndexRepository run.
type IndexResult struct {
	// Index is a copy of the published build; changing it does not affect
	// searches.
	Index *ingestion.ProjectSymbolIndex `json:"-"`
	// FilesIndexed counts files that were parsed, excluding skipped and
	// failed files.
	FilesIndexed     int                     `json:"files_indexed"`
	SymbolsExtracted int                     `json:"symbols_extracted"`
	Failures         []ingestion.FileFailure `json:"failures,omitempty"`
	SkipReasons      map[string]int          `json:"skip_reasons,omitempty"`
	// Truncated counts symbol bodies cut to the configured ceiling. It is
	// approximate when the parser is shared by concurrent builds.
	Truncated int           `json:"truncated"`
	Duration  time.Duration `json:"duration_ns"`
}

type fileOutcome struct {
	info    ingestion.FileInfo
	parse   *ingestion.FileParse
	failure error
}

// IndexRepository parses every matching file under repoPath and publishes
// the result as the project's index. Nil include or exclude patterns select
// the configured defaults.
//
// Files that fail to read or parse are reported in the result and never
// abort the run. Cancelling ctx aborts the run; nothing is published and
// the previous index stays in place. One build per project runs at a time;
// later callers wait for the lock.
func (x *Index) IndexRepository(ctx context.Context, repoPath string, include, exclude []string) (*IndexResult, error) {
	start := time.Now()

	root, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", repoPath, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("index repository: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("index repository: %s is not a directory", root)
	}

	unlock, err := x.store.LockProject(ctx, x.projectID)
	if err != nil {
		return nil, fmt.Errorf("wait for index lock: %w", err)
	}
	defer unlock()

	if include == nil {
		include = x.config.DefaultInclude
	}
	if exclude == nil {
		exclude = x.config.DefaultExclude
	}

	x.logger.Info("symbols.index.start", "root", root, "workers", x.config.Workers)

	discovered, err := ingestion.CollectFiles(root, ingestion.FileFilter{
		Include:          include,
		Exclude:          exclude,
		MaxFileSize:      x.config.MaxFileSizeBytes,
		RespectGitignore: x.config.RespectGitignore,
	}, x.logger)
	if err != nil {
		recordIndexBuild("failed", time.Since(start))
		return nil, fmt.Errorf("collect files: %w", err)
	}

	truncatedBefore := x.parser.TruncatedCount()
	outcomes, err := x.parseAll(ctx, discovered.Files)
	if err != nil {
		recordIndexBuild("canceled", time.Since(start))
		x.logger.Warn("symbols.index.canceled", "root", root, "err", err)
		return nil, err
	}

	skipReasons := make(map[string]int, len(discovered.SkipReasons))
	for reason, n := range discovered.SkipReasons {
		skipReasons[reason] += n
	}

	files := make([]ingestion.FileSymbols, 0, len(outcomes))
	var failures []ingestion.FileFailure
	for _, o := range outcomes {
		switch {
		case o.failure != nil:
			failures = append(failures, ingestion.FileFailure{FilePath: o.info.Path, Error: o.failure.Error()})
			x.logger.Warn("symbols.index.file_failed", "path", o.info.Path, "err", o.failure)
		case o.parse.Skipped != ingestion.SkipNone:
			skipReasons[string(o.parse.Skipped)]++
		default:
			files = append(files, ingestion.FileSymbols{
				FilePath: o.info.Path,
				Language: o.parse.Language,
				Symbols:  relocate(topLevel(o.parse.Symbols), o.info.Path),
			})
		}
	}

	idx := ingestion.NewProjectSymbolIndex(x.projectID, root, uuid.NewString(), files)
	idx.Failures = failures
	idx.SkipReasons = skipReasons
	x.store.Swap(idx)

	res := &IndexResult{
		Index:            idx.Clone(),
		FilesIndexed:     len(files),
		SymbolsExtracted: idx.SymbolCount(),
		Failures:         failures,
		SkipReasons:      skipReasons,
		Truncated:        x.parser.TruncatedCount() - truncatedBefore,
		Duration:         time.Since(start),
	}
	recordIndexBuild("success", res.Duration)
	x.logger.Info("symbols.index.complete",
		"root", root,
		"build_id", idx.BuildID,
		"files", res.FilesIndexed,
		"symbols", res.SymbolsExtracted,
		"failures", len(failures),
		"duration", res.Duration,
	)
	return res, nil
}

// parseAll parses files with at most Config.Workers parses in flight.
// Outcomes keep the order of files.
func (x *Index) parseAll(ctx context.Context, files []ingestion.FileInfo) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(files))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.config.Workers)

	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parse, err := x.parseOne(gctx, f)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[i] = fileOutcome{info: f, parse: parse, failure: err}
			if x.config.Progress != nil {
				x.config.Progress(int(done.Add(1)), len(files))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// parseOne parses a single file. A panic inside the parser is reported as a
// failure of that file.
func (x *Index) parseOne(ctx context.Context, f ingestion.FileInfo) (parse *ingestion.FileParse, err error) {
	defer func() {
		if r := recover(); r != nil {
			parse, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()
	return x.parser.ParseFileDetailed(ctx, f.FullPath, nil)
}

// topLevel returns the symbols of a flat extractor list that are not a child
// of another symbol in the list, in order.
func topLevel(flat []*ingestion.CodeSymbol) []*ingestion.CodeSymbol {
	nested := make(map[*ingestion.CodeSymbol]struct{})
	for _, s := range flat {
		for _, c := range s.Children {
			nested[c] = struct{}{}
		}
	}
	out := make([]*ingestion.CodeSymbol, 0, len(flat))
	for _, s := range flat {
		if _, ok := nested[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// relocate rewrites FilePath of every symbol in the forest to relPath.
func relocate(roots []*ingestion.CodeSymbol, relPath string) []*ingestion.CodeSymbol {
	for _, r := range roots {
		r.Walk(func(s *ingestion.CodeSymbol) bool {
			s.FilePath = relPath
			return true
		})
	}
	return roots
}

// CacheSymbols publishes symbols as the project's index, replacing any
// previous build. Symbols are grouped by FilePath in order of first
// appearance; symbols that appear as another symbol's child are reachable
// through that parent only. The input is copied.
func (x *Index) CacheSymbols(ctx context.Context, symbols []*ingestion.CodeSymbol) (*ingestion.ProjectSymbolIndex, error) {
	for _, s := range symbols {
		if s == nil {
			return nil, errors.New("cache symbols: nil symbol")
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("cache symbols: %w", err)
		}
	}

	unlock, err := x.store.LockProject(ctx, x.projectID)
	if err != nil {
		return nil, fmt.Errorf("wait for index lock: %w", err)
	}
	defer unlock()

	var files []ingestion.FileSymbols
	byPath := make(map[string]int)
	for _, s := range topLevel(symbols) {
		p := normalizePath(s.FilePath)
		i, ok := byPath[p]
		if !ok {
			i = len(files)
			byPath[p] = i
			files = append(files, ingestion.FileSymbols{FilePath: p, Language: ingestion.DetectLanguage(p)})
		}
		c := s.Clone()
		relocate([]*ingestion.CodeSymbol{c}, p)
		files[i].Symbols = append(files[i].Symbols, c)
	}

	idx := ingestion.NewProjectSymbolIndex(x.projectID, "", uuid.NewString(), files)
	x.store.Swap(idx)
	x.logger.Info("symbols.cache.publish", "build_id", idx.BuildID, "files", idx.FileCount, "symbols", idx.SymbolCount())
	return idx.Clone(), nil
}

// ClearCache drops the project's published index. It reports whether one
// existed.
func (x *Index) ClearCache() bool {
	removed := x.store.Delete(x.projectID)
	if removed {
		x.logger.Info("symbols.cache.clear")
	}
	return removed
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return p
	}
	return strings.TrimPrefix(path.Clean(p), "./")
}
