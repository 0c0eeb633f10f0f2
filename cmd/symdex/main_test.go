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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/symdex/internal/bootstrap"
	"github.com/kraklabs/symdex/internal/config"
	"github.com/kraklabs/symdex/internal/errors"
	"github.com/kraklabs/symdex/internal/output"
	symtest "github.com/kraklabs/symdex/internal/testing"
	"github.com/kraklabs/symdex/pkg/ingestion"
	"github.com/kraklabs/symdex/pkg/repo"
)

// newTestApp builds an app over a fresh workspace, writing results to the
// returned buffer.
func newTestApp(t *testing.T, jsonMode bool) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Workspace.Dir = t.TempDir()
	var buf bytes.Buffer
	logger := bootstrap.NewLogger(&bytes.Buffer{}, false)
	a := &app{
		globals:  GlobalFlags{JSON: jsonMode, Quiet: true},
		cfg:      cfg,
		logger:   logger,
		pipeline: bootstrap.Open(cfg, logger),
		out:      output.NewPrinter(&buf, jsonMode),
	}
	t.Cleanup(a.close)
	return a, &buf
}

// cloneFixture creates a source repository and clones it as "demo".
func cloneFixture(t *testing.T, a *app) *repo.RepoSnapshot {
	t.Helper()
	symtest.RequireGit(t)
	src := t.TempDir()
	symtest.InitGitRepo(t, src, map[string]string{
		"app.py": "class Greeter:\n    def greet(self):\n        return 'hi'\n\n\ndef alpha():\n    return 1\n",
		"lib/util.go": "package lib\n\n// Beta returns two.\nfunc Beta() int { return 2 }\n\nfunc alphabet() string { return \"abc\" }\n",
	})
	snap, err := cloneRepo(context.Background(), a, "file://"+filepath.ToSlash(src), cloneArgs{name: "demo"})
	require.NoError(t, err)
	return snap
}

func TestCloneAndStatus(t *testing.T) {
	a, _ := newTestApp(t, false)
	snap := cloneFixture(t, a)
	assert.Equal(t, "main", snap.DefaultBranch)
	assert.Equal(t, 1, snap.CloneDepth)

	rows, err := workspaceStatus(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "demo", rows[0].Name)
	assert.Equal(t, snap.LastCommit, rows[0].Snapshot.LastCommit)

	updated, err := updateRepo(context.Background(), a, "demo")
	require.NoError(t, err)
	assert.Equal(t, snap.LastCommit, updated.LastCommit)
}

func TestClone_RejectsNegativeDepth(t *testing.T) {
	a, _ := newTestApp(t, false)
	depth := -2
	_, err := cloneRepo(context.Background(), a, "https://github.com/kraklabs/symdex", cloneArgs{depth: &depth})
	var ue *errors.UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, errors.ExitInput, ue.ExitCode)
}

func TestClone_TokenFromEnvironment(t *testing.T) {
	a, _ := newTestApp(t, false)
	t.Setenv("TEST_SYMDEX_TOKEN", "s3cr3t-token")
	_, err := cloneRepo(context.Background(), a, "https://127.0.0.1:1/owner/repo.git", cloneArgs{name: "x", tokenEnv: "TEST_SYMDEX_TOKEN"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cr3t-token")
	assert.Equal(t, errors.ExitGit, errors.FromError(err, "clone").ExitCode)
}

func TestListAndShow(t *testing.T) {
	a, _ := newTestApp(t, false)
	cloneFixture(t, a)
	ctx := context.Background()

	files, err := listFiles(ctx, a, "demo", "*.go", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/util.go"}, files)

	files, err = listFiles(ctx, a, "demo", "*.rs", nil)
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	content, err := showFile(ctx, a, "demo", "app.py", "HEAD")
	require.NoError(t, err)
	assert.Contains(t, content, "class Greeter")

	_, err = showFile(ctx, a, "demo", "missing.py", "")
	assert.Equal(t, errors.ExitNotFound, errors.FromError(err, "show").ExitCode)

	_, err = listFiles(ctx, a, "nope", "*", nil)
	assert.Equal(t, errors.ExitNotFound, errors.FromError(err, "ls").ExitCode)
}

func TestIndexCheckout(t *testing.T) {
	a, buf := newTestApp(t, false)
	cloneFixture(t, a)

	summary, err := indexCheckout(context.Background(), a, "demo", indexArgs{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FilesIndexed)
	assert.Equal(t, "demo", summary.Stats.ProjectID)
	assert.Equal(t, 1, summary.Stats.ByKind["class"])
	assert.Equal(t, 1, summary.Stats.ByKind["method"])
	assert.Equal(t, 3, summary.Stats.ByKind["function"])
	assert.Equal(t, 3, summary.Stats.ByLanguage["python"])
	assert.Equal(t, 2, summary.Stats.ByLanguage["go"])

	require.NoError(t, a.out.Emit(summary, func(w io.Writer) error { return printIndexSummary(w, summary) }))
	assert.Contains(t, buf.String(), "python")
}

func TestIndexCheckout_JSON(t *testing.T) {
	a, buf := newTestApp(t, true)
	cloneFixture(t, a)

	summary, err := indexCheckout(context.Background(), a, "demo", indexArgs{include: []string{"*.py"}}, nil)
	require.NoError(t, err)
	require.NoError(t, a.out.Emit(summary, nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 1, decoded["files_indexed"])
	assert.Contains(t, decoded, "stats")
	assert.NotContains(t, decoded, "Index")
}

func TestSearchCheckout(t *testing.T) {
	a, buf := newTestApp(t, false)
	cloneFixture(t, a)
	ctx := context.Background()

	results, err := searchCheckout(ctx, a, "demo", "alpha", searchArgs{limit: 10}, indexArgs{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Symbol.Name)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, "alphabet", results[1].Symbol.Name)
	assert.Equal(t, 0.9, results[1].Score)

	results, err = searchCheckout(ctx, a, "demo", "grt", searchArgs{limit: 10, kinds: []string{"method"}}, indexArgs{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "greet", results[0].Symbol.Name)
	assert.Less(t, results[0].Score, 0.7)

	results, err = searchCheckout(ctx, a, "demo", "grt", searchArgs{limit: 10, exact: true}, indexArgs{})
	require.NoError(t, err)
	assert.Empty(t, results)

	emitResults(a, results)
	assert.Empty(t, buf.String())
}

func TestSearchCheckout_JSON(t *testing.T) {
	a, buf := newTestApp(t, true)
	cloneFixture(t, a)

	results, err := searchCheckout(context.Background(), a, "demo", "greet", searchArgs{limit: 5}, indexArgs{})
	require.NoError(t, err)
	emitResults(a, results)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.NotEmpty(t, decoded)
	assert.Contains(t, decoded[0], "score")
}

func TestSearchOptions(t *testing.T) {
	opts, err := searchOptions(searchArgs{limit: 5, kinds: []string{"class", "method"}, file: "src/"})
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, "src/", opts.FileFilter)
	assert.Equal(t, []ingestion.SymbolKind{ingestion.KindClass, ingestion.KindMethod}, opts.Kinds)
	require.NotNil(t, opts.Fuzzy)
	assert.True(t, *opts.Fuzzy)

	opts, err = searchOptions(searchArgs{limit: 1, exact: true})
	require.NoError(t, err)
	assert.False(t, *opts.Fuzzy)

	tests := []struct {
		name string
		args searchArgs
	}{
		{"zero limit", searchArgs{limit: 0}},
		{"negative limit", searchArgs{limit: -3}},
		{"unknown kind", searchArgs{limit: 10, kinds: []string{"struct"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := searchOptions(tt.args)
			var ue *errors.UserError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, errors.ExitInput, ue.ExitCode)
		})
	}
}

func TestFindDefinitions(t *testing.T) {
	a, _ := newTestApp(t, false)
	cloneFixture(t, a)

	results, err := findDefinitions(context.Background(), a, "demo", "beta", indexArgs{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Beta", results[0].Symbol.Name)
	assert.Equal(t, "lib/util.go", results[0].Symbol.FilePath)

	results, err = findDefinitions(context.Background(), a, "demo", "grt", indexArgs{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestOutlineFile(t *testing.T) {
	a, buf := newTestApp(t, false)
	cloneFixture(t, a)
	ctx := context.Background()

	tree, err := outlineFile(ctx, a, "demo", "app.py")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Greeter", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "greet", tree[0].Children[0].Name)
	assert.Equal(t, "alpha", tree[1].Name)

	root, err := a.pipeline.ResolveCheckout("demo")
	require.NoError(t, err)
	abs, err := outlineFile(ctx, a, "demo", filepath.Join(root, "app.py"))
	require.NoError(t, err)
	assert.Len(t, abs, 2)

	none, err := outlineFile(ctx, a, "demo", "missing.py")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, printOutline(buf, tree, 0))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "  "), "children are indented")
	assert.Contains(t, lines[1], "greet")
}

func TestSupportedLanguages(t *testing.T) {
	reg := ingestion.NewGrammarRegistry(nil, nil)
	langs := supportedLanguages(reg)
	require.Len(t, langs, len(reg.Languages()))
	for _, l := range langs {
		assert.True(t, l.Available, "%s should load", l.Language)
		assert.NotEmpty(t, l.Extensions)
	}
}

func TestWriteCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCompletion(&buf, shell))
			assert.Contains(t, buf.String(), "symdex")
			for _, name := range commandNames() {
				assert.Contains(t, buf.String(), name)
			}
		})
	}

	err := writeCompletion(io.Discard, "tcsh")
	var ue *errors.UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, errors.ExitInput, ue.ExitCode)
}

func TestInitProject(t *testing.T) {
	root := t.TempDir()
	logger := bootstrap.NewLogger(io.Discard, false)
	flags := initFlags{workspaceDir: "repos", depth: 1, timeout: config.DefaultConfig().Clone.Timeout, maxProjects: 4}

	info, err := initProject(root, flags, logger)
	require.NoError(t, err)
	assert.Equal(t, config.ConfigPath(root), info.ConfigPath)
	assert.DirExists(t, filepath.Join(root, "repos"))
	_, err = os.Stat(info.ConfigPath)
	require.NoError(t, err)

	_, err = initProject(root, flags, logger)
	var ue *errors.UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, errors.ExitConfig, ue.ExitCode)

	flags.force = true
	_, err = initProject(root, flags, logger)
	require.NoError(t, err)

	flags.depth = -1
	_, err = initProject(root, flags, logger)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, errors.ExitInput, ue.ExitCode)
}
