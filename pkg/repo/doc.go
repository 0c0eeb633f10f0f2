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

// Package repo acquires source repositories for symdex.
//
// An Acquirer clones remotes into a workspace directory with the git binary
// and reads checkout metadata with go-git:
//
//	acq := repo.New(repo.DefaultConfig(), logger)
//	snap, err := acq.CloneRepo(ctx, "https://github.com/org/project.git", repo.CloneOptions{
//	    AccessToken: os.Getenv("SYMDEX_GIT_TOKEN"),
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(snap.LocalPath, snap.LastCommit)
//
// # Safety
//
// Remotes are validated before any subprocess runs: https, http, ssh,
// scp-style, file:// and existing local directories are accepted; shell
// metacharacters and embedded passwords are rejected. Target names are
// sanitised before any filesystem change; absolute names and ".." segments
// fail with ErrInvalidTargetName.
//
// Access tokens are injected as userinfo into https remotes for the git
// argument list only. Logged URLs, snapshot URLs and captured stderr never
// contain them.
//
// Clones and pulls run under Config.CloneTimeout with terminal prompts
// disabled. A checkout larger than Config.MaxRepoSizeBytes is removed and
// reported as a *RepoTooLargeError. Operations on one checkout path are
// serialised; a caller waiting for the path gives up when its context ends.
//
// # Metrics
//
//   - symdex_repo_clones_total{result}
//   - symdex_repo_clone_duration_seconds
//   - symdex_repo_checkout_bytes
//   - symdex_repo_pulls_total{result}
package repo
