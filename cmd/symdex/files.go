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
)

// runList executes the 'ls' CLI command.
//
// Examples:
//
//	symdex ls symdex
//	symdex ls symdex --pattern '*.go' --exclude-dir testdata
func runList(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	pattern := fs.String("pattern", "*", "Glob matched against the relative path or base name")
	excludeDirs := fs.StringSlice("exclude-dir", nil, "Directory name to skip (repeatable; default: clone.exclude_dirs)")
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex ls <path|name> [options]

Lists the files of a checkout, sorted, relative to its root.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 1, globals, "ls needs a checkout path or name")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	var exclude []string
	if fs.Changed("exclude-dir") {
		exclude = *excludeDirs
	}
	files, err := listFiles(ctx, a, rest[0], *pattern, exclude)
	if err != nil {
		a.fail(err, "Cannot list files")
	}
	if err := a.out.Emit(files, func(w io.Writer) error {
		for _, f := range files {
			if _, err := fmt.Fprintln(w, f); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

func listFiles(ctx context.Context, a *app, pathOrName, pattern string, excludeDirs []string) ([]string, error) {
	path, err := a.pipeline.ResolveCheckout(pathOrName)
	if err != nil {
		return nil, err
	}
	files, err := a.pipeline.Acquirer().ListFiles(ctx, path, pattern, excludeDirs)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// fileContent is the --json form of 'symdex show'.
type fileContent struct {
	Path    string `json:"path"`
	Ref     string `json:"ref,omitempty"`
	Content string `json:"content"`
}

// runShow executes the 'show' CLI command.
//
// Examples:
//
//	symdex show symdex go.mod
//	symdex show symdex pkg/repo/url.go --ref HEAD~3
func runShow(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	ref := fs.String("ref", "", "Read the file at this commit, branch or tag instead of the working tree")
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex show <path|name> <file> [options]

Prints a file from a checkout.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 2, globals, "show needs a checkout and a file path")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	content, err := showFile(ctx, a, rest[0], rest[1], *ref)
	if err != nil {
		a.fail(err, "Cannot read file")
	}
	result := fileContent{Path: rest[1], Ref: *ref, Content: content}
	if err := a.out.Emit(result, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

func showFile(ctx context.Context, a *app, pathOrName, file, ref string) (string, error) {
	path, err := a.pipeline.ResolveCheckout(pathOrName)
	if err != nil {
		return "", err
	}
	return a.pipeline.Acquirer().GetFileContent(ctx, path, file, ref)
}
