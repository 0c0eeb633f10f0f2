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

	"github.com/kraklabs/symdex/internal/output"
	"github.com/kraklabs/symdex/internal/ui"
	"github.com/kraklabs/symdex/pkg/ingestion"
)

// languageInfo is one row of 'symdex languages'.
type languageInfo struct {
	Language   ingestion.Language `json:"language"`
	Extensions []string           `json:"extensions"`
	Available  bool               `json:"available"`
}

// runLanguages executes the 'languages' CLI command, listing the grammars
// compiled into the binary and whether each one loads.
func runLanguages(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("languages", flag.ExitOnError)
	addJSONFlag(fs, &globals)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: symdex languages [options]

Lists supported languages, their file extensions and grammar status.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a := mustApp(globals)
	defer a.close()

	langs := supportedLanguages(a.pipeline.Extractor().Registry())
	if err := a.out.Emit(langs, func(w io.Writer) error {
		tbl := output.NewTable("LANGUAGE", "EXTENSIONS", "STATUS")
		for _, l := range langs {
			status := ui.Green.Sprint("ok")
			if !l.Available {
				status = ui.Red.Sprint("unavailable")
			}
			tbl.Row(string(l.Language), strings.Join(l.Extensions, " "), status)
		}
		_, err := tbl.WriteTo(w)
		return err
	}); err != nil {
		a.fail(err, "Cannot write output")
	}
}

func supportedLanguages(reg *ingestion.GrammarRegistry) []languageInfo {
	langs := reg.Languages()
	out := make([]languageInfo, 0, len(langs))
	for _, l := range langs {
		out = append(out, languageInfo{
			Language:   l,
			Extensions: ingestion.Extensions(l),
			Available:  reg.Available(l),
		})
	}
	return out
}
