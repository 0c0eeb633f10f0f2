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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// RepoSnapshot records the state of a checkout when it was acquired.
type RepoSnapshot struct {
	// URL is the credential-free remote.
	URL            string     `json:"url"`
	LocalPath      string     `json:"local_path"`
	DefaultBranch  string     `json:"default_branch"`
	LastCommit     string     `json:"last_commit"`
	LastCommitDate *time.Time `json:"last_commit_date,omitempty"`
	// CloneDepth is the number of commits fetched; 0 means full history.
	CloneDepth int `json:"clone_depth"`
}

// openRepository opens the repository at localPath without searching
// parent directories.
func openRepository(localPath string) (*git.Repository, error) {
	r, err := git.PlainOpen(localPath)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotAGitRepository, localPath)
		}
		return nil, fmt.Errorf("open repository %s: %w", localPath, err)
	}
	return r, nil
}

// readSnapshot reads HEAD metadata with go-git. An empty repository yields a
// snapshot with the branch set and no commit.
func readSnapshot(localPath string) (*RepoSnapshot, error) {
	r, err := openRepository(localPath)
	if err != nil {
		return nil, err
	}

	snap := &RepoSnapshot{LocalPath: localPath}

	headRef, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	if headRef.Type() == plumbing.SymbolicReference {
		snap.DefaultBranch = headRef.Target().Short()
	}

	head, err := r.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	snap.LastCommit = head.Hash().String()

	commit, err := r.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", snap.LastCommit, err)
	}
	when := commit.Author.When
	snap.LastCommitDate = &when

	if remote, err := r.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			snap.URL = SanitizeURL(urls[0])
		}
	}
	return snap, nil
}

// isShallow reports whether the checkout holds truncated history.
func isShallow(localPath string) bool {
	info, err := os.Stat(filepath.Join(localPath, ".git", "shallow"))
	return err == nil && info.Size() > 0
}

// historyDepth returns the number of commits reachable from HEAD for a
// shallow checkout, and 0 for full history.
func (a *Acquirer) historyDepth(ctx context.Context, localPath string) int {
	if !isShallow(localPath) {
		return 0
	}
	res, err := a.runGit(ctx, localPath, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Stdout))
	if err != nil {
		return 0
	}
	return n
}
