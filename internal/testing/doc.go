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

// Package testing provides test helpers for symdex packages.
//
// # Fixture Trees
//
// WriteTree materialises a map of slash-separated paths to file contents
// under a directory:
//
//	root := t.TempDir()
//	symtest.WriteTree(t, root, map[string]string{
//	    "a.py":       "def alpha(): return 1\n",
//	    "pkg/b.py":   "def beta(): return 2\n",
//	})
//
// # Git Repositories
//
// InitGitRepo creates a repository with a single commit on branch main and
// returns its HEAD hash. Commit adds further commits. Both skip the test
// when no git binary is on PATH:
//
//	import symtest "github.com/kraklabs/symdex/internal/testing"
//
//	func TestClone(t *testing.T) {
//	    src := t.TempDir()
//	    head := symtest.InitGitRepo(t, src, map[string]string{"main.go": "package main\n"})
//	    // clone "file://" + src ...
//	}
//
// Commits are made with a fixed identity and signing disabled, so the helpers
// do not depend on the user's git configuration.
package testing
