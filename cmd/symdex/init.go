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
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symdex/internal/bootstrap"
	"github.com/kraklabs/symdex/internal/config"
	"github.com/kraklabs/symdex/internal/errors"
	"github.com/kraklabs/symdex/internal/output"
	"github.com/kraklabs/symdex/internal/ui"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force        bool
	workspaceDir string
	depth        int
	timeout      time.Duration
	maxProjects  int
}

// runInit executes the 'init' CLI command, creating .symdex/config.yaml in
// the current directory.
//
// Examples:
//
//	symdex init
//	symdex init --workspace-dir /srv/repos --clone-timeout 10m
//	symdex init --force
func runInit(args []string, globals GlobalFlags) {
	flags := parseInitFlags(args, &globals)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot get current directory", err.Error(), "", err), globals.JSON)
	}

	info, err := initProject(cwd, flags, bootstrap.NewLogger(os.Stderr, globals.Debug))
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ui.InitColors(!ui.ColorEnabled(globals.NoColor, os.Stdout))
	p := output.NewPrinter(os.Stdout, globals.JSON)
	if err := p.Emit(info, func(w io.Writer) error {
		ui.Successf("Created %s", info.ConfigPath)
		fmt.Fprintf(w, "  %s %s\n", ui.Label("Workspace:"), info.WorkspaceDir)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Next steps:")
		fmt.Fprintln(w, "  symdex clone <url>")
		_, err := fmt.Fprintln(w, "  symdex search <name> <query>")
		return err
	}); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}

func parseInitFlags(args []string, globals *GlobalFlags) initFlags {
	defaults := config.DefaultConfig()
	var flags initFlags

	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.BoolVar(&flags.force, "force", false, "Overwrite an existing configuration")
	fs.StringVar(&flags.workspaceDir, "workspace-dir", defaults.Workspace.Dir, "Directory checkouts are cloned into")
	fs.IntVar(&flags.depth, "depth", defaults.Clone.Depth, "Default clone depth (0 = full history)")
	fs.DurationVar(&flags.timeout, "clone-timeout", defaults.Clone.Timeout, "Timeout for each clone or pull")
	fs.IntVar(&flags.maxProjects, "max-projects", defaults.Cache.MaxProjects, "Project indexes kept in memory (0 = unbounded)")
	addJSONFlag(fs, globals)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex init [options]

Creates .symdex/config.yaml in the current directory and the workspace
directory. Other settings keep their defaults and can be edited in the file.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return flags
}

func initProject(root string, flags initFlags, logger *slog.Logger) (*bootstrap.ProjectInfo, error) {
	cfg := config.DefaultConfig()
	cfg.Workspace.Dir = flags.workspaceDir
	cfg.Clone.Depth = flags.depth
	cfg.Clone.Timeout = flags.timeout
	cfg.Cache.MaxProjects = flags.maxProjects
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewInputError("Invalid init option", err.Error(), "Run: symdex init --help")
	}

	info, err := bootstrap.InitProject(root, cfg, flags.force, logger)
	if err != nil {
		if errors.Is(err, bootstrap.ErrAlreadyInitialized) {
			return nil, errors.NewConfigError(
				"Configuration already exists",
				err.Error(),
				"Use --force to overwrite it",
				err,
			)
		}
		return nil, errors.NewInternalError("Cannot write configuration", err.Error(), "Check permissions on the current directory", err)
	}
	return info, nil
}
