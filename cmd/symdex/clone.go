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
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symdex/internal/errors"
	"github.com/kraklabs/symdex/internal/ui"
	"github.com/kraklabs/symdex/pkg/repo"
)

// cloneArgs holds the parsed flags of the clone command.
type cloneArgs struct {
	name     string
	depth    *int
	branch   string
	tokenEnv string
}

// runClone executes the 'clone' CLI command.
//
// The access token is read from the environment variable named by
// --token-env and never accepted on the command line.
//
// Examples:
//
//	symdex clone https://github.com/kraklabs/symdex
//	symdex clone git@github.com:kraklabs/private.git --name private --depth 0
//	SYMDEX_GIT_TOKEN=ghp_x symdex clone https://github.com/kraklabs/private
func runClone(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("clone", flag.ExitOnError)
	name := fs.String("name", "", "Checkout directory relative to the workspace (default: derived from URL)")
	depth := fs.Int("depth", -1, "Clone depth, 0 for full history (default: clone.depth from config)")
	branch := fs.String("branch", "", "Clone a single branch instead of the remote HEAD")
	tokenEnv := fs.String("token-env", "", "Environment variable holding an HTTPS access token (default: clone.token_env)")
	addJSONFlag(fs, &globals)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex clone <url> [options]

Clones a git repository into the workspace. An existing checkout with the
same name is replaced.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 1, globals, "clone needs exactly one repository URL")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	opts := cloneArgs{name: *name, branch: *branch, tokenEnv: *tokenEnv}
	if fs.Changed("depth") {
		opts.depth = depth
	}

	stop := spin(a.progress, "Cloning")
	snap, err := cloneRepo(ctx, a, rest[0], opts)
	stop()
	if err != nil {
		a.fail(err, "Cannot clone repository")
	}
	if err := a.out.Emit(snap, func(w io.Writer) error {
		ui.Successf("Cloned %s", snap.URL)
		return printSnapshot(w, snap)
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

func cloneRepo(ctx context.Context, a *app, url string, args cloneArgs) (*repo.RepoSnapshot, error) {
	if args.depth != nil && *args.depth < 0 {
		return nil, errors.NewInputError("Invalid --depth", "depth must be 0 or greater", "Use --depth 0 for full history")
	}
	tokenEnv := args.tokenEnv
	if tokenEnv == "" {
		tokenEnv = a.cfg.TokenEnv()
	}
	return a.pipeline.Acquirer().CloneRepo(ctx, url, repo.CloneOptions{
		TargetName:  args.name,
		Depth:       args.depth,
		Branch:      args.branch,
		AccessToken: os.Getenv(tokenEnv),
	})
}

// runUpdate executes the 'update' CLI command, fast-forwarding a checkout.
func runUpdate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex update <path|name> [options]

Pulls the checkout's upstream with --ff-only.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 1, globals, "update needs a checkout path or name")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	stop := spin(a.progress, "Pulling")
	snap, err := updateRepo(ctx, a, rest[0])
	stop()
	if err != nil {
		a.fail(err, "Cannot update repository")
	}
	if err := a.out.Emit(snap, func(w io.Writer) error {
		ui.Successf("Updated %s", snap.LocalPath)
		return printSnapshot(w, snap)
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

func updateRepo(ctx context.Context, a *app, pathOrName string) (*repo.RepoSnapshot, error) {
	path, err := a.pipeline.ResolveCheckout(pathOrName)
	if err != nil {
		return nil, err
	}
	return a.pipeline.Acquirer().UpdateRepo(ctx, path)
}

func printSnapshot(w io.Writer, snap *repo.RepoSnapshot) error {
	commit := snap.LastCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	depth := "full"
	if snap.CloneDepth > 0 {
		depth = fmt.Sprint(snap.CloneDepth)
	}
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Path:  "), snap.LocalPath)
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Branch:"), snap.DefaultBranch)
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Commit:"), ui.DimText(commit))
	if snap.LastCommitDate != nil {
		fmt.Fprintf(w, "  %s %s\n", ui.Label("Date:  "), snap.LastCommitDate.Format("2006-01-02 15:04:05 -0700"))
	}
	_, err := fmt.Fprintf(w, "  %s %s\n", ui.Label("Depth: "), depth)
	return err
}

// checkoutStatus is one row of 'symdex status'.
type checkoutStatus struct {
	Name     string             `json:"name"`
	Snapshot *repo.RepoSnapshot `json:"snapshot,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// runStatus executes the 'status' CLI command, listing workspace checkouts.
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex status [options]

Lists the checkouts in the workspace with their branch and HEAD commit.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	rows, err := workspaceStatus(ctx, a)
	if err != nil {
		a.fail(err, "Cannot list checkouts")
	}
	if err := a.out.Emit(rows, func(w io.Writer) error {
		ui.Header("Workspace " + a.cfg.Workspace.Dir)
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "No checkouts. Run: symdex clone <url>")
			return err
		}
		for _, r := range rows {
			if r.Error != "" {
				fmt.Fprintf(w, "%s  %s\n", r.Name, ui.Red.Sprint(r.Error))
				continue
			}
			commit := r.Snapshot.LastCommit
			if len(commit) > 12 {
				commit = commit[:12]
			}
			fmt.Fprintf(w, "%s  %s %s\n", ui.Label(r.Name), r.Snapshot.DefaultBranch, ui.DimText(commit))
		}
		return nil
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

func workspaceStatus(ctx context.Context, a *app) ([]checkoutStatus, error) {
	acq := a.pipeline.Acquirer()
	names, err := acq.Checkouts()
	if err != nil {
		return nil, err
	}
	rows := make([]checkoutStatus, 0, len(names))
	for _, name := range names {
		row := checkoutStatus{Name: name}
		path, err := acq.TargetPath(name)
		if err == nil {
			row.Snapshot, err = acq.Snapshot(ctx, path)
		}
		if err != nil {
			row.Error = err.Error()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// runClean executes the 'clean' CLI command, deleting a checkout.
func runClean(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	yes := fs.BoolP("yes", "y", false, "Confirm deletion")
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex clean <name> --yes

Deletes the named checkout from the workspace.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 1, globals, "clean needs a checkout name")
	if !*yes {
		errors.FatalError(errors.NewInputError(
			"Refusing to delete without confirmation",
			"clean removes the checkout directory and everything in it",
			"Re-run with --yes",
		), globals.JSON)
	}

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	removed, err := a.pipeline.Acquirer().RemoveRepo(ctx, rest[0])
	if err != nil {
		a.fail(err, "Cannot remove checkout")
	}
	result := map[string]any{"name": rest[0], "removed": removed}
	if err := a.out.Emit(result, func(io.Writer) error {
		if removed {
			ui.Successf("Removed %s", rest[0])
		} else {
			ui.Warningf("No checkout named %s", rest[0])
		}
		return nil
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}
