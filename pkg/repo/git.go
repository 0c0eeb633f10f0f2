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
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// gitResult is the outcome of one git invocation.
type gitResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runGit executes git with args in dir. Prompts are disabled so a remote
// asking for credentials fails instead of hanging. A non-nil error is either
// a context error or the *exec.ExitError of a non-zero exit.
func (a *Acquirer) runGit(ctx context.Context, dir string, args ...string) (gitResult, error) {
	return a.runGitEnv(ctx, dir, nil, args...)
}

// runGitEnv is runGit with extra environment entries for this invocation.
func (a *Acquirer) runGitEnv(ctx context.Context, dir string, env []string, args ...string) (gitResult, error) {
	// #nosec G204 - arguments are validated by the callers and passed without a shell
	cmd := exec.CommandContext(ctx, a.config.GitBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"GCM_INTERACTIVE=never",
		"GIT_ASKPASS=",
		"SSH_ASKPASS=",
	)
	cmd.Env = append(cmd.Env, env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// git spawns helpers (remote-https, ssh) that may keep the pipes open
	// after the parent is killed.
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	res := gitResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res, err
}

// tokenEnv returns environment entries that make one git invocation send
// token as an HTTP Authorization header. The header is passed through
// GIT_CONFIG_COUNT entries appended after any the caller already set, so it
// never reaches argv or the checkout's .git/config.
func tokenEnv(token string) []string {
	if token == "" {
		return nil
	}
	n := 0
	if v, err := strconv.Atoi(os.Getenv("GIT_CONFIG_COUNT")); err == nil && v > 0 {
		n = v
	}
	cred := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + token))
	return []string{
		fmt.Sprintf("GIT_CONFIG_KEY_%d=http.extraHeader", n),
		fmt.Sprintf("GIT_CONFIG_VALUE_%d=Authorization: Basic %s", n, cred),
		fmt.Sprintf("GIT_CONFIG_COUNT=%d", n+1),
	}
}
