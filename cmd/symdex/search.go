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
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symdex/internal/errors"
	"github.com/kraklabs/symdex/internal/output"
	"github.com/kraklabs/symdex/internal/ui"
	"github.com/kraklabs/symdex/pkg/ingestion"
	"github.com/kraklabs/symdex/pkg/symbols"
)

// searchArgs holds the parsed flags of the search command.
type searchArgs struct {
	kinds []string
	file  string
	limit int
	exact bool
}

// runSearch executes the 'search' CLI command.
//
// Scores: 1.0 exact name, 0.9 prefix, 0.7 substring, and fuzzy subsequence
// matches scaled below 0.6. --exact turns fuzzy matching off.
//
// Examples:
//
//	symdex search symdex clone
//	symdex search symdex cln --kind method --kind function
//	symdex search symdex handler --file 'internal/*' --limit 5
func runSearch(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var sa searchArgs
	fs.StringSliceVar(&sa.kinds, "kind", nil, "Only return symbols of this kind (repeatable)")
	fs.StringVar(&sa.file, "file", "", "Only return symbols from files matching this glob")
	fs.IntVar(&sa.limit, "limit", symbols.DefaultSearchLimit, "Maximum number of results")
	fs.BoolVar(&sa.exact, "exact", false, "Disable fuzzy matching")
	ia := addIndexFlags(fs)
	addJSONFlag(fs, &globals)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex search <path|name> <query> [options]

Indexes the checkout and ranks its symbols by name against the query.

Kinds: %s

Options:
`, kindList())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 2, globals, "search needs a checkout and a query")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	results, err := searchCheckout(ctx, a, rest[0], rest[1], sa, *ia)
	if err != nil {
		a.fail(err, "Search failed")
	}
	emitResults(a, results)
}

func searchOptions(sa searchArgs) (symbols.SearchOptions, error) {
	opts := symbols.SearchOptions{
		FileFilter: sa.file,
		Limit:      sa.limit,
		Fuzzy:      symbols.Bool(!sa.exact),
	}
	if sa.limit <= 0 {
		return opts, errors.NewInputError("Invalid --limit", "limit must be positive", "Use e.g. --limit 20")
	}
	for _, k := range sa.kinds {
		kind, err := ingestion.ParseSymbolKind(k)
		if err != nil {
			return opts, errors.NewInputError("Invalid --kind", err.Error(), "Valid kinds: "+kindList())
		}
		opts.Kinds = append(opts.Kinds, kind)
	}
	return opts, nil
}

func searchCheckout(ctx context.Context, a *app, pathOrName, query string, sa searchArgs, ia indexArgs) ([]symbols.SearchResult, error) {
	opts, err := searchOptions(sa)
	if err != nil {
		return nil, err
	}
	idx, _, err := buildIndex(ctx, a, pathOrName, ia, nil)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, query, opts)
}

// runDefs executes the 'defs' CLI command: exact, prefix and substring
// matches only, at most ten.
func runDefs(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("defs", flag.ExitOnError)
	ia := addIndexFlags(fs)
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex defs <path|name> <symbol> [options]

Finds where a symbol is defined.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 2, globals, "defs needs a checkout and a symbol name")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	results, err := findDefinitions(ctx, a, rest[0], rest[1], *ia)
	if err != nil {
		a.fail(err, "Definition lookup failed")
	}
	emitResults(a, results)
}

func findDefinitions(ctx context.Context, a *app, pathOrName, name string, ia indexArgs) ([]symbols.SearchResult, error) {
	idx, _, err := buildIndex(ctx, a, pathOrName, ia, nil)
	if err != nil {
		return nil, err
	}
	return idx.FindDefinitions(ctx, name)
}

func emitResults(a *app, results []symbols.SearchResult) {
	if err := a.out.Emit(results, func(w io.Writer) error {
		if len(results) == 0 {
			ui.Info("No matching symbols")
			return nil
		}
		tbl := output.NewTable("SCORE", "KIND", "NAME", "LOCATION")
		for _, r := range results {
			tbl.Row(ui.ScoreText(r.Score), ui.KindText(r.Symbol.Kind), qualifiedName(r.Symbol),
				ui.DimText(fmt.Sprintf("%s:%d", r.Symbol.FilePath, r.Symbol.Span.StartLine)))
		}
		_, err := tbl.WriteTo(w)
		return err
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

func qualifiedName(s *ingestion.CodeSymbol) string {
	if s.Parent == "" {
		return s.Name
	}
	return s.Parent + "." + s.Name
}

// runOutline executes the 'outline' CLI command, printing the symbol tree
// of one file.
func runOutline(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("outline", flag.ExitOnError)
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex outline <path|name> <file> [options]

Prints the classes, functions and other symbols of a file as a tree.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	rest := requireArgs(fs, 2, globals, "outline needs a checkout and a file path")

	a := mustApp(globals)
	defer a.close()
	ctx, cancel := signalContext(a.logger)
	defer cancel()

	tree, err := outlineFile(ctx, a, rest[0], rest[1])
	if err != nil {
		a.fail(err, "Cannot outline file")
	}
	if err := a.out.Emit(tree, func(w io.Writer) error {
		if len(tree) == 0 {
			ui.Infof("No symbols in %s", rest[1])
			return nil
		}
		return printOutline(w, tree, 0)
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

// outlineFile indexes only the requested file and returns its hierarchy.
func outlineFile(ctx context.Context, a *app, pathOrName, file string) ([]*ingestion.CodeSymbol, error) {
	root, err := a.pipeline.ResolveCheckout(pathOrName)
	if err != nil {
		return nil, err
	}
	if filepath.IsAbs(file) {
		if r, err := filepath.Rel(root, file); err == nil {
			file = r
		}
	}
	rel := strings.TrimPrefix(filepath.ToSlash(file), "./")
	idx, _, err := buildIndex(ctx, a, root, indexArgs{include: []string{rel}, exclude: []string{}}, nil)
	if err != nil {
		return nil, err
	}
	return idx.GetSymbolHierarchy(ctx, rel)
}

func printOutline(w io.Writer, syms []*ingestion.CodeSymbol, depth int) error {
	for _, s := range syms {
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", depth), ui.KindText(s.Kind), ui.Label(s.Name))
		if s.Signature != "" {
			line += " " + ui.DimText(s.Signature)
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", line, ui.DimText(fmt.Sprintf("L%d-%d", s.Span.StartLine, s.Span.EndLine))); err != nil {
			return err
		}
		if err := printOutline(w, s.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func kindList() string {
	names := make([]string, len(ingestion.AllKinds))
	for i, k := range ingestion.AllKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
