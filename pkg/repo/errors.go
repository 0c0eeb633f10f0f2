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
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidURL reports a remote that is not an accepted git URL or local directory.
	ErrInvalidURL = errors.New("invalid repository url")
	// ErrInvalidTargetName reports a checkout name that is empty, absolute or escapes the workspace.
	ErrInvalidTargetName = errors.New("invalid target name")
	// ErrInvalidPath reports a repository-relative file path that escapes the repository.
	ErrInvalidPath = ErrInvalidTargetName
	// ErrInvalidBranch reports a branch name that git would read as an option or is malformed.
	ErrInvalidBranch = errors.New("invalid branch name")
	// ErrCloneFailed reports a non-zero exit of git clone. See CloneError.
	ErrCloneFailed = errors.New("clone failed")
	// ErrCloneTimeout reports a git subprocess exceeding the configured timeout.
	ErrCloneTimeout = errors.New("clone timed out")
	// ErrRepoTooLarge reports a checkout larger than the configured ceiling. See RepoTooLargeError.
	ErrRepoTooLarge = errors.New("repository too large")
	// ErrNotAGitRepository reports a path without repository metadata.
	ErrNotAGitRepository = errors.New("not a git repository")
	// ErrPullFailed reports a non-zero exit of git pull.
	ErrPullFailed = errors.New("pull failed")
	// ErrFileNotFound reports a missing file, or a revision that cannot be resolved.
	ErrFileNotFound = errors.New("file not found")
)

// CloneError carries the diagnostic output of a failed git clone. Stderr has
// any access token scrubbed.
type CloneError struct {
	URL      string
	ExitCode int
	Stderr   string
}

func (e *CloneError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git clone %s failed with exit code %d", e.URL, e.ExitCode)
	}
	return fmt.Sprintf("git clone %s failed with exit code %d: %s", e.URL, e.ExitCode, msg)
}

func (e *CloneError) Unwrap() error { return ErrCloneFailed }

// RepoTooLargeError reports the measured size of a rejected checkout.
type RepoTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *RepoTooLargeError) Error() string {
	return fmt.Sprintf("repository size %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

func (e *RepoTooLargeError) Unwrap() error { return ErrRepoTooLarge }
