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
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symdex/internal/errors"
)

// completionCommand describes a command for the completion scripts.
type completionCommand struct {
	name  string
	desc  string
	flags []string
}

var completionCommands = []completionCommand{
	{"init", "Create .symdex/config.yaml", []string{"--force", "--workspace-dir", "--depth", "--clone-timeout", "--max-projects", "--json"}},
	{"clone", "Clone a repository into the workspace", []string{"--name", "--depth", "--branch", "--token-env", "--json"}},
	{"update", "Fast-forward an existing checkout", []string{"--json"}},
	{"status", "List checkouts in the workspace", []string{"--json"}},
	{"clean", "Remove a checkout from the workspace", []string{"--yes", "--json"}},
	{"ls", "List files in a checkout", []string{"--pattern", "--exclude-dir", "--json"}},
	{"show", "Print a file, optionally at a git ref", []string{"--ref", "--json"}},
	{"index", "Index a checkout and print a summary", []string{"--include", "--exclude", "--timeout", "--metrics-addr", "--json"}},
	{"search", "Search symbols by name", []string{"--kind", "--file", "--limit", "--exact", "--include", "--exclude", "--timeout", "--json"}},
	{"defs", "Find exact definitions of a name", []string{"--include", "--exclude", "--timeout", "--json"}},
	{"outline", "Show the symbol hierarchy of a file", []string{"--json"}},
	{"languages", "List supported languages", []string{"--json"}},
	{"completion", "Generate shell completion script", nil},
}

var completionGlobalFlags = []string{"--config", "--json", "--quiet", "--no-color", "--debug", "--version"}

func commandNames() []string {
	names := make([]string, len(completionCommands))
	for i, c := range completionCommands {
		names[i] = c.name
	}
	return names
}

func writeBashCompletion(w io.Writer) {
	fmt.Fprintf(w, `#!/bin/bash

# Bash completion script for symdex
# Installation:
#   source <(symdex completion bash)

_symdex_completion() {
    local cur commands
    commands="%s"
    cur="${COMP_WORDS[COMP_CWORD]}"

    if [ $COMP_CWORD -eq 1 ]; then
        if [[ ${cur} == -* ]] ; then
            COMPREPLY=( $(compgen -W "%s" -- ${cur}) )
        else
            COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        fi
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
`, strings.Join(commandNames(), " "), strings.Join(completionGlobalFlags, " "))
	for _, c := range completionCommands {
		if c.name == "completion" {
			fmt.Fprintf(w, "        completion)\n            COMPREPLY=( $(compgen -W \"bash zsh fish\" -- ${cur}) )\n            ;;\n")
			continue
		}
		fmt.Fprintf(w, "        %s)\n            if [[ ${cur} == -* ]] ; then\n                COMPREPLY=( $(compgen -W \"%s\" -- ${cur}) )\n            fi\n            ;;\n",
			c.name, strings.Join(c.flags, " "))
	}
	fmt.Fprint(w, `    esac
}

complete -F _symdex_completion symdex
`)
}

func writeZshCompletion(w io.Writer) {
	fmt.Fprint(w, `#compdef symdex

# Zsh completion script for symdex
# Installation:
#   symdex completion zsh > "${fpath[1]}/_symdex"

_symdex() {
    local -a commands
    commands=(
`)
	for _, c := range completionCommands {
		fmt.Fprintf(w, "        '%s:%s'\n", c.name, c.desc)
	}
	fmt.Fprint(w, `    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--config[Path to config file]:config file:_files -g "*.yaml"' \
        '--json[Output as JSON]' \
        '--no-color[Disable colored output]' \
        '--debug[Enable debug logging]' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
`)
	for _, c := range completionCommands {
		if c.name == "completion" {
			fmt.Fprint(w, "                completion)\n                    _arguments '1:shell:(bash zsh fish)'\n                    ;;\n")
			continue
		}
		fmt.Fprintf(w, "                %s)\n                    _arguments", c.name)
		for _, f := range c.flags {
			fmt.Fprintf(w, " '%s'", f)
		}
		fmt.Fprint(w, " '*:path:_files'\n                    ;;\n")
	}
	fmt.Fprint(w, `            esac
            ;;
    esac
}

_symdex
`)
}

func writeFishCompletion(w io.Writer) {
	fmt.Fprint(w, `# Fish completion script for symdex
# Installation:
#   symdex completion fish > ~/.config/fish/completions/symdex.fish

`)
	for _, c := range completionCommands {
		fmt.Fprintf(w, "complete -c symdex -f -n \"__fish_use_subcommand\" -a \"%s\" -d \"%s\"\n", c.name, c.desc)
	}
	fmt.Fprintln(w)
	for _, f := range completionGlobalFlags {
		fmt.Fprintf(w, "complete -c symdex -l %s\n", strings.TrimPrefix(f, "--"))
	}
	for _, c := range completionCommands {
		for _, f := range c.flags {
			fmt.Fprintf(w, "complete -c symdex -n \"__fish_seen_subcommand_from %s\" -l %s\n", c.name, strings.TrimPrefix(f, "--"))
		}
	}
	fmt.Fprint(w, "complete -c symdex -n \"__fish_seen_subcommand_from completion\" -f -a \"bash zsh fish\"\n")
}

// writeCompletion writes the script for shell to w.
func writeCompletion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		writeBashCompletion(w)
	case "zsh":
		writeZshCompletion(w)
	case "fish":
		writeFishCompletion(w)
	default:
		return errors.NewInputError(
			"Unsupported shell: "+shell,
			"Only bash, zsh, and fish are supported",
			"Run 'symdex completion bash', 'symdex completion zsh', or 'symdex completion fish'",
		)
	}
	return nil
}

// runCompletion executes the 'completion' CLI command.
//
// Examples:
//
//	source <(symdex completion bash)
//	symdex completion zsh > "${fpath[1]}/_symdex"
//	symdex completion fish | source
func runCompletion(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex completion <bash|zsh|fish>

Generates a shell completion script on stdout.
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 1, globals, "completion needs a shell name")
	if err := writeCompletion(os.Stdout, rest[0]); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}
