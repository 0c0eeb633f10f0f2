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

// Package main implements the symdex CLI: clone repositories, extract
// their symbols and search them.
//
// Usage:
//
//	symdex clone <url>               Clone a repository into the workspace
//	symdex index <path>              Build the symbol index and print a summary
//	symdex search <path> <query>     Rank symbols against a query
//	symdex defs <path> <name>        Find exact definitions
//	symdex outline <path> <file>     Show a file's symbol hierarchy
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds flags accepted before the command name.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	// Quiet suppresses progress output. --json implies it.
	Quiet   bool
	NoColor bool
	Debug   bool
}

const usageText = `symdex - repository code intelligence

symdex clones git repositories into a local workspace, extracts their
symbols with tree-sitter and answers ranked symbol searches. Indexes are
built in memory for each invocation.

Usage:
  symdex [global options] <command> [options]

Commands:
  init          Create .symdex/config.yaml
  clone         Clone a repository into the workspace
  update        Fast-forward an existing checkout
  status        List checkouts in the workspace
  clean         Remove a checkout from the workspace
  ls            List files in a checkout
  show          Print a file, optionally at a git ref
  index         Index a checkout and print a summary
  search        Search symbols by name
  defs          Find exact definitions of a name
  outline       Show the symbol hierarchy of a file
  languages     List supported languages
  completion    Generate shell completion script (bash|zsh|fish)

Global Options:
  --config      Path to config file (default: ./.symdex/config.yaml)
  --json        Output as JSON
  -q, --quiet   Suppress progress output
  --no-color    Disable colored output
  --debug       Enable debug logging
  --version     Show version and exit

Examples:
  symdex init
  symdex clone https://github.com/kraklabs/symdex --depth 1
  symdex index symdex
  symdex search symdex parse --kind function --limit 5
  symdex defs symdex CloneRepo
  symdex outline symdex pkg/repo/acquirer.go

Environment Variables:
  SYMDEX_GIT_TOKEN       Access token for private HTTPS remotes (see --token-env)
  SYMDEX_WORKSPACE_DIR   Override workspace.dir
  SYMDEX_CLONE_TIMEOUT   Override clone.timeout (e.g. 10m)
  SYMDEX_MAX_REPO_SIZE   Override clone.max_repo_size_bytes
  SYMDEX_MAX_FILE_SIZE   Override index.max_file_size_bytes

For detailed command help: symdex <command> --help
`

func main() {
	fs := flag.NewFlagSet("symdex", flag.ExitOnError)
	fs.SetInterspersed(false)

	var globals GlobalFlags
	showVersion := fs.Bool("version", false, "Show version and exit")
	fs.StringVar(&globals.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&globals.JSON, "json", false, "Output as JSON")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress progress output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&globals.Debug, "debug", false, "Enable debug logging")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usageText) }

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("symdex version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "clone":
		runClone(cmdArgs, globals)
	case "update":
		runUpdate(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "clean":
		runClean(cmdArgs, globals)
	case "ls":
		runList(cmdArgs, globals)
	case "show":
		runShow(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, globals)
	case "search":
		runSearch(cmdArgs, globals)
	case "defs":
		runDefs(cmdArgs, globals)
	case "outline":
		runOutline(cmdArgs, globals)
	case "languages":
		runLanguages(cmdArgs, globals)
	case "completion":
		runCompletion(cmdArgs, globals)
	case "help":
		fs.Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		fs.Usage()
		os.Exit(1)
	}
}
