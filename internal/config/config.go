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

// Package config loads the symdex configuration file.
//
// The file lives at .symdex/config.yaml in the working directory unless
// --config names another path. A missing file is not an error: every field
// has a default, and SYMDEX_* environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/symdex/pkg/ingestion"
	"github.com/kraklabs/symdex/pkg/repo"
	"github.com/kraklabs/symdex/pkg/storage"
	"github.com/kraklabs/symdex/pkg/symbols"
)

const (
	// DirName is the per-directory configuration folder.
	DirName = ".symdex"
	// FileName is the configuration file inside DirName.
	FileName = "config.yaml"
	// CurrentVersion is written by SaveConfig.
	CurrentVersion = "1"
	// DefaultTokenEnv names the variable holding the git access token.
	DefaultTokenEnv = "SYMDEX_GIT_TOKEN"
)

// Environment variables that override the file.
const (
	EnvWorkspaceDir = "SYMDEX_WORKSPACE_DIR"
	EnvCloneTimeout = "SYMDEX_CLONE_TIMEOUT"
	EnvMaxRepoSize  = "SYMDEX_MAX_REPO_SIZE"
	EnvMaxFileSize  = "SYMDEX_MAX_FILE_SIZE"
)

// Config is the on-disk configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Clone     CloneConfig     `yaml:"clone"`
	Index     IndexConfig     `yaml:"index"`
	Cache     CacheConfig     `yaml:"cache"`
}

// WorkspaceConfig locates checkouts.
type WorkspaceConfig struct {
	Dir string `yaml:"dir"`
}

// CloneConfig tunes RepoAcquirer.
type CloneConfig struct {
	// Depth is the default clone depth. 0 clones full history.
	Depth            int           `yaml:"depth"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRepoSizeBytes int64         `yaml:"max_repo_size_bytes"`
	GitBinary        string        `yaml:"git_binary,omitempty"`
	// TokenEnv is the default for --token-env.
	TokenEnv    string   `yaml:"token_env"`
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`
}

// IndexConfig tunes extraction and indexing.
type IndexConfig struct {
	// Workers bounds concurrent parses. 0 uses GOMAXPROCS.
	Workers          int      `yaml:"workers"`
	Include          []string `yaml:"include,omitempty"`
	Exclude          []string `yaml:"exclude,omitempty"`
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes"`
	// MaxBodyBytes truncates stored symbol bodies. 0 keeps them whole.
	MaxBodyBytes     int64 `yaml:"max_body_bytes"`
	RespectGitignore bool  `yaml:"respect_gitignore"`
}

// CacheConfig bounds the in-memory symbol cache.
type CacheConfig struct {
	// MaxProjects caps cached project indexes. 0 is unbounded.
	MaxProjects int `yaml:"max_projects"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Workspace: WorkspaceConfig{
			Dir: repo.DefaultWorkspaceDir,
		},
		Clone: CloneConfig{
			Depth:            repo.DefaultCloneDepth,
			Timeout:          repo.DefaultCloneTimeout,
			MaxRepoSizeBytes: repo.DefaultMaxRepoSizeBytes,
			TokenEnv:         DefaultTokenEnv,
		},
		Index: IndexConfig{
			MaxFileSizeBytes: ingestion.DefaultMaxFileSizeBytes,
			RespectGitignore: true,
		},
		Cache: CacheConfig{
			MaxProjects: 16,
		},
	}
}

// ConfigDir returns the configuration directory under root.
func ConfigDir(root string) string {
	return filepath.Join(root, DirName)
}

// ConfigPath returns the configuration file path under root.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), FileName)
}

// LoadConfig reads the file at path, applies environment overrides and
// validates the result. An empty path selects ConfigPath of the working
// directory. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvWorkspaceDir); v != "" {
		c.Workspace.Dir = v
	}
	if v := os.Getenv(EnvCloneTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCloneTimeout, err)
		}
		c.Clone.Timeout = d
	}
	if v := os.Getenv(EnvMaxRepoSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxRepoSize, err)
		}
		c.Clone.MaxRepoSizeBytes = n
	}
	if v := os.Getenv(EnvMaxFileSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxFileSize, err)
		}
		c.Index.MaxFileSizeBytes = n
	}
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Workspace.Dir == "":
		return errors.New("workspace.dir is required")
	case c.Clone.Depth < 0:
		return fmt.Errorf("clone.depth must be >= 0, got %d", c.Clone.Depth)
	case c.Clone.Timeout <= 0:
		return fmt.Errorf("clone.timeout must be positive, got %s", c.Clone.Timeout)
	case c.Clone.MaxRepoSizeBytes < 0:
		return fmt.Errorf("clone.max_repo_size_bytes must be >= 0, got %d", c.Clone.MaxRepoSizeBytes)
	case c.Index.Workers < 0:
		return fmt.Errorf("index.workers must be >= 0, got %d", c.Index.Workers)
	case c.Index.MaxBodyBytes < 0:
		return fmt.Errorf("index.max_body_bytes must be >= 0, got %d", c.Index.MaxBodyBytes)
	case c.Cache.MaxProjects < 0:
		return fmt.Errorf("cache.max_projects must be >= 0, got %d", c.Cache.MaxProjects)
	}
	for _, g := range append(append([]string{}, c.Index.Include...), c.Index.Exclude...) {
		if g == "" {
			return errors.New("index include/exclude patterns must not be empty")
		}
	}
	return nil
}

// TokenEnv returns the configured token variable name.
func (c *Config) TokenEnv() string {
	if c.Clone.TokenEnv == "" {
		return DefaultTokenEnv
	}
	return c.Clone.TokenEnv
}

// RepoConfig converts the clone and workspace sections.
func (c *Config) RepoConfig() repo.Config {
	return repo.Config{
		WorkspaceDir:     c.Workspace.Dir,
		DefaultDepth:     c.Clone.Depth,
		CloneTimeout:     c.Clone.Timeout,
		MaxRepoSizeBytes: c.Clone.MaxRepoSizeBytes,
		GitBinary:        c.Clone.GitBinary,
		ExcludeDirs:      c.Clone.ExcludeDirs,
	}
}

// ExtractorConfig converts the parse limits.
func (c *Config) ExtractorConfig() ingestion.ExtractorConfig {
	return ingestion.ExtractorConfig{
		MaxFileSizeBytes: c.Index.MaxFileSizeBytes,
		MaxBodyBytes:     c.Index.MaxBodyBytes,
	}
}

// SymbolsConfig converts the index section. Empty pattern lists select
// the package defaults.
func (c *Config) SymbolsConfig() symbols.Config {
	cfg := symbols.Config{
		Workers:          c.Index.Workers,
		MaxFileSizeBytes: c.Index.MaxFileSizeBytes,
		RespectGitignore: c.Index.RespectGitignore,
	}
	if len(c.Index.Include) > 0 {
		cfg.DefaultInclude = c.Index.Include
	}
	if len(c.Index.Exclude) > 0 {
		cfg.DefaultExclude = append(ingestion.DefaultExcludePatterns(), c.Index.Exclude...)
	}
	return cfg
}

// StoreConfig converts the cache section.
func (c *Config) StoreConfig(logger *slog.Logger) storage.MemoryConfig {
	return storage.MemoryConfig{
		MaxProjects: c.Cache.MaxProjects,
		Logger:      logger,
	}
}
