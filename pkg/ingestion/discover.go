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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileFilter selects which files of a checkout are handed to the extractor.
type FileFilter struct {
	// Include globs; a file must match at least one. Empty means DefaultIncludePatterns.
	Include []string
	// Exclude globs, applied to directories (pruned) and files.
	Exclude []string
	// MaxFileSize skips larger files; 0 disables the check.
	MaxFileSize int64
	// RespectGitignore applies .gitignore files found under the root.
	RespectGitignore bool
}

// FileInfo describes a discovered source file.
type FileInfo struct {
	Path     string // slash-separated, relative to the root
	FullPath string
	Size     int64
	Language Language
}

// DiscoveryResult is the outcome of CollectFiles.
type DiscoveryResult struct {
	Files       []FileInfo
	SkipReasons map[string]int
}

// CollectFiles walks root and returns the files selected by filter, sorted
// by relative path. Unreadable entries are logged and skipped.
func CollectFiles(root string, filter FileFilter, logger *slog.Logger) (*DiscoveryResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	include := filter.Include
	if len(include) == 0 {
		include = DefaultIncludePatterns()
	}

	var ignore gitignore.Matcher
	if filter.RespectGitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			logger.Warn("ingestion.discover.gitignore_error", "root", root, "err", err)
		} else if len(patterns) > 0 {
			ignore = gitignore.NewMatcher(patterns)
		}
	}

	result := &DiscoveryResult{SkipReasons: make(map[string]int)}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("ingestion.discover.walk_error", "path", path, "err", err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if MatchAny(rel, filter.Exclude) {
				result.SkipReasons["excluded_dir"]++
				return filepath.SkipDir
			}
			if ignore != nil && ignore.Match(strings.Split(rel, "/"), true) {
				result.SkipReasons["gitignored_dir"]++
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if MatchAny(rel, filter.Exclude) {
			result.SkipReasons["excluded"]++
			return nil
		}
		if !MatchAny(rel, include) {
			result.SkipReasons["not_included"]++
			return nil
		}
		if ignore != nil && ignore.Match(strings.Split(rel, "/"), false) {
			result.SkipReasons["gitignored"]++
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if filter.MaxFileSize > 0 && fi.Size() > filter.MaxFileSize {
			result.SkipReasons[string(SkipTooLarge)]++
			logger.Warn("ingestion.discover.skip_large_file",
				"path", rel,
				"size", fi.Size(),
				"limit", filter.MaxFileSize,
			)
			return nil
		}

		result.Files = append(result.Files, FileInfo{
			Path:     rel,
			FullPath: path,
			Size:     fi.Size(),
			Language: DetectLanguage(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	return result, nil
}
