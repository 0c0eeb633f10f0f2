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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/symdex/pkg/ingestion"
	"github.com/kraklabs/symdex/pkg/repo"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvWorkspaceDir, EnvCloneTimeout, EnvMaxRepoSize, EnvMaxFileSize} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, repo.DefaultWorkspaceDir, cfg.Workspace.Dir)
	assert.Equal(t, 5*time.Minute, cfg.Clone.Timeout)
	assert.Equal(t, DefaultTokenEnv, cfg.TokenEnv())
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workspace:
  dir: /srv/repos
clone:
  depth: 0
  timeout: 90s
  max_repo_size_bytes: 1048576
  token_env: CI_TOKEN
index:
  workers: 3
  include: ["*.py"]
  exclude: ["*_pb2.py"]
  respect_gitignore: false
cache:
  max_projects: 2
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/repos", cfg.Workspace.Dir)
	assert.Equal(t, 0, cfg.Clone.Depth)
	assert.Equal(t, 90*time.Second, cfg.Clone.Timeout)
	assert.Equal(t, int64(1<<20), cfg.Clone.MaxRepoSizeBytes)
	assert.Equal(t, "CI_TOKEN", cfg.TokenEnv())
	assert.Equal(t, 3, cfg.Index.Workers)
	assert.False(t, cfg.Index.RespectGitignore)
	assert.Equal(t, 2, cfg.Cache.MaxProjects)
	// Unset fields keep their defaults.
	assert.Equal(t, ingestion.DefaultMaxFileSizeBytes, cfg.Index.MaxFileSizeBytes)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workspace:\n  dir: /from/file\n"), 0o644))

	t.Setenv(EnvWorkspaceDir, "/from/env")
	t.Setenv(EnvCloneTimeout, "2m")
	t.Setenv(EnvMaxRepoSize, "1000")
	t.Setenv(EnvMaxFileSize, "2048")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Workspace.Dir)
	assert.Equal(t, 2*time.Minute, cfg.Clone.Timeout)
	assert.Equal(t, int64(1000), cfg.Clone.MaxRepoSizeBytes)
	assert.Equal(t, int64(2048), cfg.Index.MaxFileSizeBytes)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("clone: [unterminated"), 0o644))
	_, err := LoadConfig(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("clone:\n  depth: -1\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.ErrorContains(t, err, "clone.depth")

	t.Setenv(EnvCloneTimeout, "soon")
	_, err = LoadConfig(filepath.Join(dir, "absent.yaml"))
	assert.ErrorContains(t, err, EnvCloneTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty workspace", func(c *Config) { c.Workspace.Dir = "" }, "workspace.dir"},
		{"zero timeout", func(c *Config) { c.Clone.Timeout = 0 }, "clone.timeout"},
		{"negative size", func(c *Config) { c.Clone.MaxRepoSizeBytes = -1 }, "clone.max_repo_size_bytes"},
		{"negative workers", func(c *Config) { c.Index.Workers = -2 }, "index.workers"},
		{"negative body", func(c *Config) { c.Index.MaxBodyBytes = -1 }, "index.max_body_bytes"},
		{"negative cache", func(c *Config) { c.Cache.MaxProjects = -1 }, "cache.max_projects"},
		{"empty glob", func(c *Config) { c.Index.Exclude = []string{""} }, "patterns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	path := ConfigPath(root)
	assert.Equal(t, filepath.Join(root, ".symdex", "config.yaml"), path)

	cfg := DefaultConfig()
	cfg.Clone.Timeout = 45 * time.Second
	cfg.Index.Include = []string{"*.go"}
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConverters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspace.Dir = "/w"
	cfg.Clone.Depth = 5
	cfg.Index.Workers = 4
	cfg.Index.MaxBodyBytes = 512
	cfg.Index.Exclude = []string{"*.gen.go"}
	cfg.Cache.MaxProjects = 3

	rc := cfg.RepoConfig()
	assert.Equal(t, "/w", rc.WorkspaceDir)
	assert.Equal(t, 5, rc.DefaultDepth)
	assert.Equal(t, repo.DefaultCloneTimeout, rc.CloneTimeout)

	ec := cfg.ExtractorConfig()
	assert.Equal(t, int64(512), ec.MaxBodyBytes)
	assert.Equal(t, ingestion.DefaultMaxFileSizeBytes, ec.MaxFileSizeBytes)

	sc := cfg.SymbolsConfig()
	assert.Equal(t, 4, sc.Workers)
	assert.Nil(t, sc.DefaultInclude, "empty include keeps the package default")
	assert.Contains(t, sc.DefaultExclude, "*.gen.go")
	assert.Subset(t, sc.DefaultExclude, ingestion.DefaultExcludePatterns())
	assert.True(t, sc.RespectGitignore)

	assert.Equal(t, 3, cfg.StoreConfig(nil).MaxProjects)
}
