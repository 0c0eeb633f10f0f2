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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kraklabs/symdex/pkg/ingestion"
	"github.com/kraklabs/symdex/pkg/storage"
)

// Defaults applied by DefaultConfig and, for zero values, by New.
const (
	DefaultWorkspaceDir     = "./data/repos"
	DefaultCloneDepth       = 1
	DefaultCloneTimeout     = 300 * time.Second
	DefaultMaxRepoSizeBytes = 500 << 20
	DefaultGitBinary        = "git"
)

// DefaultExcludeDirs lists directory names pruned by ListFiles at any depth.
func DefaultExcludeDirs() []string {
	return []string{
		".git", "node_modules", "__pycache__", ".venv", "venv",
		"vendor", "dist", "build", "target", ".tox", ".mypy_cache",
	}
}

// Config configures an Acquirer.
type Config struct {
	// WorkspaceDir is the directory all checkouts live under.
	WorkspaceDir string
	// DefaultDepth is the clone depth when CloneOptions.Depth is nil. 0 clones full history.
	DefaultDepth int
	// CloneTimeout bounds each clone and pull.
	CloneTimeout time.Duration
	// MaxRepoSizeBytes rejects larger checkouts. 0 disables the check.
	MaxRepoSizeBytes int64
	GitBinary        string
	ExcludeDirs      []string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		WorkspaceDir:     DefaultWorkspaceDir,
		DefaultDepth:     DefaultCloneDepth,
		CloneTimeout:     DefaultCloneTimeout,
		MaxRepoSizeBytes: DefaultMaxRepoSizeBytes,
		GitBinary:        DefaultGitBinary,
		ExcludeDirs:      DefaultExcludeDirs(),
	}
}

// CloneOptions are the per-call parameters of CloneRepo.
type CloneOptions struct {
	// TargetName is the checkout directory relative to the workspace.
	// Empty derives it from the URL.
	TargetName string
	// Depth overrides Config.DefaultDepth. 0 clones full history.
	Depth *int
	// Branch checks out a single branch instead of the remote HEAD.
	Branch string
	// AccessToken authenticates https remotes. It only ever appears in the
	// git argument list.
	AccessToken string
}

// Acquirer clones and updates repositories inside a workspace directory.
// Operations on the same checkout path are serialised; distinct paths run
// concurrently.
type Acquirer struct {
	config Config
	logger *slog.Logger
	locks  *storage.KeyedMutex
}

// New creates an Acquirer. Zero WorkspaceDir, CloneTimeout and GitBinary
// take their defaults, as does a nil ExcludeDirs.
func New(config Config, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkspaceDir == "" {
		config.WorkspaceDir = DefaultWorkspaceDir
	}
	if config.CloneTimeout <= 0 {
		config.CloneTimeout = DefaultCloneTimeout
	}
	if config.GitBinary == "" {
		config.GitBinary = DefaultGitBinary
	}
	if config.ExcludeDirs == nil {
		config.ExcludeDirs = DefaultExcludeDirs()
	}
	if config.DefaultDepth < 0 {
		config.DefaultDepth = 0
	}
	return &Acquirer{
		config: config,
		logger: logger,
		locks:  storage.NewKeyedMutex(),
	}
}

// Config returns the effective configuration.
func (a *Acquirer) Config() Config { return a.config }

// TargetPath returns the absolute checkout path for a target name.
func (a *Acquirer) TargetPath(targetName string) (string, error) {
	name, err := SanitizeTargetName(targetName)
	if err != nil {
		return "", err
	}
	workspace, err := filepath.Abs(a.config.WorkspaceDir)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return filepath.Join(workspace, filepath.FromSlash(name)), nil
}

// lockPath serialises work on one checkout path.
func (a *Acquirer) lockPath(ctx context.Context, path string) (func(), error) {
	unlock, err := a.locks.Lock(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", path, err)
	}
	return unlock, nil
}

// CloneRepo clones gitURL into the workspace and returns its snapshot.
// An existing checkout at the target path is removed first. On any failure
// after the clone starts, the target directory is removed.
func (a *Acquirer) CloneRepo(ctx context.Context, gitURL string, opts CloneOptions) (*RepoSnapshot, error) {
	// An explicit name is checked before the URL is looked at; a derived
	// one only once the URL is known to be valid.
	var target string
	if opts.TargetName != "" {
		t, err := a.TargetPath(opts.TargetName)
		if err != nil {
			return nil, err
		}
		target = t
	}
	kind, err := classifyURL(gitURL)
	if err != nil {
		return nil, err
	}
	if err := validateBranch(opts.Branch); err != nil {
		return nil, err
	}
	if target == "" {
		if target, err = a.TargetPath(DefaultTargetName(gitURL)); err != nil {
			return nil, err
		}
	}
	depth := a.config.DefaultDepth
	if opts.Depth != nil {
		depth = *opts.Depth
	}
	if depth < 0 {
		return nil, fmt.Errorf("clone depth must be >= 0, got %d", depth)
	}

	logURL := SanitizeURL(gitURL)

	unlock, err := a.lockPath(ctx, target)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("remove existing checkout: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	args := []string{"clone", "--quiet"}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch, "--single-branch")
	}
	args = append(args, "--", gitURL, target)
	var env []string
	if kind == remoteHTTPS {
		env = tokenEnv(opts.AccessToken)
	}

	a.logger.Info("repo.clone.start",
		"url", logURL,
		"target", target,
		"depth", depth,
		"branch", opts.Branch,
	)

	start := time.Now()
	cloneCtx, cancel := context.WithTimeout(ctx, a.config.CloneTimeout)
	defer cancel()

	res, err := a.runGitEnv(cloneCtx, "", env, args...)
	if err != nil {
		a.removeTarget(target)
		stderr := scrubSecrets(res.Stderr, opts.AccessToken)
		switch {
		case ctx.Err() != nil:
			recordClone("canceled", time.Since(start))
			a.logger.Warn("repo.clone.canceled", "url", logURL)
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			recordClone("timeout", time.Since(start))
			a.logger.Warn("repo.clone.timeout", "url", logURL, "timeout", a.config.CloneTimeout)
			return nil, fmt.Errorf("%w after %s: %s", ErrCloneTimeout, a.config.CloneTimeout, logURL)
		default:
			recordClone("failed", time.Since(start))
			a.logger.Warn("repo.clone.failed",
				"url", logURL,
				"exit_code", res.ExitCode,
				"stderr", strings.TrimSpace(stderr),
			)
			return nil, &CloneError{URL: logURL, ExitCode: res.ExitCode, Stderr: stderr}
		}
	}

	size, err := dirSize(target)
	if err != nil {
		a.removeTarget(target)
		recordClone("failed", time.Since(start))
		return nil, fmt.Errorf("measure checkout: %w", err)
	}
	if limit := a.config.MaxRepoSizeBytes; limit > 0 && size > limit {
		a.removeTarget(target)
		recordClone("too_large", time.Since(start))
		a.logger.Warn("repo.clone.too_large", "url", logURL, "size", size, "limit", limit)
		return nil, &RepoTooLargeError{Size: size, Limit: limit}
	}

	snap, err := readSnapshot(target)
	if err != nil {
		a.removeTarget(target)
		recordClone("failed", time.Since(start))
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap.URL = logURL
	snap.CloneDepth = depth

	recordClone("success", time.Since(start))
	recordCheckoutSize(size)
	a.logger.Info("repo.clone.success",
		"url", logURL,
		"target", target,
		"branch", snap.DefaultBranch,
		"commit", snap.LastCommit,
		"size", size,
		"duration", time.Since(start),
	)
	return snap, nil
}

func (a *Acquirer) removeTarget(target string) {
	if err := os.RemoveAll(target); err != nil {
		a.logger.Warn("repo.cleanup.error", "dir", target, "err", err)
	}
}

// UpdateRepo fast-forwards the checkout at localPath from its upstream and
// returns a fresh snapshot.
func (a *Acquirer) UpdateRepo(ctx context.Context, localPath string) (*RepoSnapshot, error) {
	abs, err := requireRepository(localPath)
	if err != nil {
		return nil, err
	}

	unlock, err := a.lockPath(ctx, abs)
	if err != nil {
		return nil, err
	}
	defer unlock()

	a.logger.Info("repo.pull.start", "path", abs)
	pullCtx, cancel := context.WithTimeout(ctx, a.config.CloneTimeout)
	defer cancel()

	res, err := a.runGit(pullCtx, abs, "pull", "--ff-only", "--quiet")
	if err != nil {
		switch {
		case ctx.Err() != nil:
			recordPull("canceled")
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			recordPull("timeout")
			return nil, fmt.Errorf("%w after %s: pull %s", ErrCloneTimeout, a.config.CloneTimeout, abs)
		default:
			recordPull("failed")
			stderr := strings.TrimSpace(scrubSecrets(res.Stderr, ""))
			a.logger.Warn("repo.pull.failed", "path", abs, "exit_code", res.ExitCode, "stderr", stderr)
			return nil, fmt.Errorf("%w: %s", ErrPullFailed, stderr)
		}
	}
	recordPull("success")

	snap, err := readSnapshot(abs)
	if err != nil {
		return nil, err
	}
	snap.CloneDepth = a.historyDepth(ctx, abs)
	a.logger.Info("repo.pull.success", "path", abs, "commit", snap.LastCommit)
	return snap, nil
}

// Snapshot reads the current state of an existing checkout.
func (a *Acquirer) Snapshot(ctx context.Context, localPath string) (*RepoSnapshot, error) {
	abs, err := requireRepository(localPath)
	if err != nil {
		return nil, err
	}
	snap, err := readSnapshot(abs)
	if err != nil {
		return nil, err
	}
	snap.CloneDepth = a.historyDepth(ctx, abs)
	return snap, nil
}

func requireRepository(localPath string) (string, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", localPath, err)
	}
	if _, err := os.Stat(filepath.Join(abs, ".git")); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotAGitRepository, abs)
		}
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	return abs, nil
}

// GetFileContent returns filePath from the working tree, or from revision
// ref when ref is not empty. filePath is relative to localPath and must stay
// inside it.
func (a *Acquirer) GetFileContent(ctx context.Context, localPath, filePath, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, err := cleanRelPath(filePath)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", localPath, err)
	}

	if ref == "" {
		return readWorkingTreeFile(root, rel)
	}

	r, err := openRepository(root)
	if err != nil {
		return "", err
	}
	hash, err := r.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("%w: revision %q: %v", ErrFileNotFound, ref, err)
	}
	commit, err := r.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("%w: revision %q: %v", ErrFileNotFound, ref, err)
	}
	file, err := commit.File(rel)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s at %s", ErrFileNotFound, rel, ref)
		}
		return "", fmt.Errorf("read %s at %s: %w", rel, ref, err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", rel, ref, err)
	}
	return content, nil
}

func readWorkingTreeFile(root, rel string) (string, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	if inside, err := filepath.Rel(resolvedRoot, resolved); err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s resolves outside the repository", ErrInvalidPath, rel)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", rel, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrFileNotFound, rel)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return string(data), nil
}

// ListFiles lists regular files under localPath as sorted, slash-separated
// relative paths. Directories named in excludeDirs are pruned at any depth;
// nil selects Config.ExcludeDirs. A non-empty pattern keeps only paths
// matching that glob.
func (a *Acquirer) ListFiles(ctx context.Context, localPath, pattern string, excludeDirs []string) ([]string, error) {
	root, err := filepath.Abs(localPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", localPath, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list files: %s is not a directory", root)
	}
	if excludeDirs == nil {
		excludeDirs = a.config.ExcludeDirs
	}
	excluded := make(map[string]struct{}, len(excludeDirs))
	for _, d := range excludeDirs {
		excluded[d] = struct{}{}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			a.logger.Warn("repo.walk.error", "path", path, "err", err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := excluded[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if pattern != "" && !ingestion.MatchGlob(rel, pattern) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RemoveRepo deletes the checkout named targetName. It reports whether a
// checkout existed.
func (a *Acquirer) RemoveRepo(ctx context.Context, targetName string) (bool, error) {
	target, err := a.TargetPath(targetName)
	if err != nil {
		return false, err
	}
	unlock, err := a.lockPath(ctx, target)
	if err != nil {
		return false, err
	}
	defer unlock()

	if _, err := os.Lstat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", target, err)
	}
	if err := os.RemoveAll(target); err != nil {
		return false, fmt.Errorf("remove %s: %w", target, err)
	}
	a.logger.Info("repo.remove", "target", target)
	return true, nil
}

// Checkouts lists the target names of checkouts in the workspace. Nested
// names (org/repo) are found by looking for repository metadata.
func (a *Acquirer) Checkouts() ([]string, error) {
	workspace, err := filepath.Abs(a.config.WorkspaceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	var names []string
	err = filepath.WalkDir(workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == workspace {
				return filepath.SkipAll
			}
			return nil
		}
		if !d.IsDir() || path == workspace {
			return nil
		}
		if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
			rel, _ := filepath.Rel(workspace, path)
			names = append(names, filepath.ToSlash(rel))
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
