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

package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/symdex/internal/config"
	"github.com/kraklabs/symdex/pkg/ingestion"
	"github.com/kraklabs/symdex/pkg/repo"
	"github.com/kraklabs/symdex/pkg/storage"
	"github.com/kraklabs/symdex/pkg/symbols"
)

// ErrAlreadyInitialized is returned by InitProject when a config file
// exists and force is not set.
var ErrAlreadyInitialized = errors.New("symdex already initialized")

// ProjectInfo describes an initialized directory.
type ProjectInfo struct {
	ConfigPath   string `json:"config_path"`
	WorkspaceDir string `json:"workspace_dir"`
	Created      bool   `json:"created"`
}

// InitProject writes cfg to .symdex/config.yaml under root and creates the
// workspace directory. It is idempotent for the workspace; an existing
// config file is only replaced when force is set.
func InitProject(root string, cfg *config.Config, force bool, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path := config.ConfigPath(root)
	info := &ProjectInfo{ConfigPath: path, WorkspaceDir: cfg.Workspace.Dir}
	if !filepath.IsAbs(info.WorkspaceDir) {
		info.WorkspaceDir = filepath.Join(root, info.WorkspaceDir)
	}

	logger.Info("bootstrap.init.start", "config", path, "workspace", info.WorkspaceDir)

	if _, err := os.Stat(path); err == nil && !force {
		return nil, fmt.Errorf("%w: %s exists (use --force to overwrite)", ErrAlreadyInitialized, path)
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(info.WorkspaceDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	info.Created = true

	logger.Info("bootstrap.init.success", "config", path)
	return info, nil
}

// NewLogger returns the CLI logger: text on w, Debug level when debug is
// set.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Pipeline wires the acquirer, extractor and symbol cache from one
// configuration. Indexes created through it share the cache.
type Pipeline struct {
	config    *config.Config
	acquirer  *repo.Acquirer
	extractor *ingestion.Extractor
	store     storage.Store
	logger    *slog.Logger
}

// Open builds a pipeline from cfg. A nil cfg uses the defaults.
func Open(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	registry := ingestion.NewGrammarRegistry(logger, nil)
	return &Pipeline{
		config:    cfg,
		acquirer:  repo.New(cfg.RepoConfig(), logger),
		extractor: ingestion.NewExtractor(registry, cfg.ExtractorConfig(), logger),
		store:     storage.NewMemoryStore(cfg.StoreConfig(logger)),
		logger:    logger,
	}
}

// Config returns the configuration the pipeline was built from.
func (p *Pipeline) Config() *config.Config { return p.config }

// Acquirer returns the repository acquirer.
func (p *Pipeline) Acquirer() *repo.Acquirer { return p.acquirer }

// Extractor returns the shared symbol extractor.
func (p *Pipeline) Extractor() *ingestion.Extractor { return p.extractor }

// Store returns the symbol cache.
func (p *Pipeline) Store() storage.Store { return p.store }

// ProjectID derives the cache key for a checkout: its target name when it
// lives in the workspace, its absolute path otherwise.
func (p *Pipeline) ProjectID(repoPath string) (string, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", repoPath, err)
	}
	workspace, err := filepath.Abs(p.config.Workspace.Dir)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	rel, err := filepath.Rel(workspace, abs)
	if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(rel), nil
	}
	return filepath.ToSlash(abs), nil
}

// Index returns the symbol index for the checkout at repoPath.
func (p *Pipeline) Index(repoPath string) (*symbols.Index, error) {
	return p.IndexWithProgress(repoPath, nil)
}

// IndexWithProgress is Index with a per-file progress callback.
func (p *Pipeline) IndexWithProgress(repoPath string, progress symbols.ProgressFunc) (*symbols.Index, error) {
	id, err := p.ProjectID(repoPath)
	if err != nil {
		return nil, err
	}
	sc := p.config.SymbolsConfig()
	sc.Progress = progress
	return symbols.New(id, p.extractor, p.store, sc, p.logger), nil
}

// ResolveCheckout accepts either a path or a workspace target name and
// returns the checkout directory.
func (p *Pipeline) ResolveCheckout(pathOrName string) (string, error) {
	if info, err := os.Stat(pathOrName); err == nil && info.IsDir() {
		return filepath.Abs(pathOrName)
	}
	target, err := p.acquirer.TargetPath(pathOrName)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", os.ErrNotExist, pathOrName)
	}
	return target, nil
}

// Close releases the cache.
func (p *Pipeline) Close() error {
	return p.store.Close()
}
