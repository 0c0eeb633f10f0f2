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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/symdex/internal/config"
	symtest "github.com/kraklabs/symdex/internal/testing"
	"github.com/kraklabs/symdex/pkg/repo"
)

func TestInitProject(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Workspace.Dir = "repos"

	info, err := InitProject(root, cfg, false, nil)
	require.NoError(t, err)
	assert.True(t, info.Created)
	assert.Equal(t, config.ConfigPath(root), info.ConfigPath)
	assert.DirExists(t, filepath.Join(root, "repos"))
	assert.FileExists(t, info.ConfigPath)

	_, err = InitProject(root, cfg, false, nil)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	cfg.Cache.MaxProjects = 1
	_, err = InitProject(root, cfg, true, nil)
	require.NoError(t, err)
	loaded, err := config.LoadConfig(info.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Cache.MaxProjects)
}

func TestInitProject_RejectsInvalidConfig(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Clone.Depth = -1
	_, err := InitProject(root, cfg, false, nil)
	assert.Error(t, err)
	assert.NoFileExists(t, config.ConfigPath(root))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestPipeline_ProjectID(t *testing.T) {
	workspace := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Workspace.Dir = workspace
	p := Open(cfg, nil)
	defer p.Close()

	id, err := p.ProjectID(filepath.Join(workspace, "kraklabs", "symdex"))
	require.NoError(t, err)
	assert.Equal(t, "kraklabs/symdex", id)

	outside := t.TempDir()
	id, err = p.ProjectID(outside)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(outside), id)

	id, err = p.ProjectID(workspace)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(workspace), id)
}

func TestPipeline_ResolveCheckout(t *testing.T) {
	workspace := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Workspace.Dir = workspace
	p := Open(cfg, nil)
	defer p.Close()

	target := filepath.Join(workspace, "team", "svc")
	require.NoError(t, os.MkdirAll(target, 0o755))

	got, err := p.ResolveCheckout("team/svc")
	require.NoError(t, err)
	assert.Equal(t, target, got)

	got, err = p.ResolveCheckout(target)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	_, err = p.ResolveCheckout("team/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = p.ResolveCheckout("../escape")
	assert.ErrorIs(t, err, repo.ErrInvalidTargetName)
}

func TestPipeline_CloneAndIndex(t *testing.T) {
	symtest.RequireGit(t)

	src := t.TempDir()
	symtest.InitGitRepo(t, src, map[string]string{
		"app.py":      "def alpha():\n    return 1\n",
		"lib/util.go": "package lib\n\nfunc Beta() int { return 2 }\n",
	})

	cfg := config.DefaultConfig()
	cfg.Workspace.Dir = t.TempDir()
	p := Open(cfg, nil)
	defer p.Close()

	ctx := context.Background()
	snap, err := p.Acquirer().CloneRepo(ctx, "file://"+filepath.ToSlash(src), repo.CloneOptions{TargetName: "demo"})
	require.NoError(t, err)

	idx, err := p.Index(snap.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "demo", idx.ProjectID())

	res, err := idx.IndexRepository(ctx, snap.LocalPath, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesIndexed)

	defs, err := idx.FindDefinitions(ctx, "beta")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.True(t, strings.HasSuffix(defs[0].Symbol.FilePath, "util.go"))

	// A second index for the same checkout sees the shared cache.
	again, err := p.Index(snap.LocalPath)
	require.NoError(t, err)
	_, ok := again.Current()
	assert.True(t, ok)
	assert.Equal(t, []string{"demo"}, p.Store().Projects())
}
