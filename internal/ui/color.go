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

// Package ui provides terminal output helpers for the symdex CLI.
//
// Colors respect the --no-color flag and the NO_COLOR environment variable,
// and are disabled when stdout is not a terminal.
//
// Color usage:
//   - Red: errors, failures
//   - Yellow: warnings, skipped files
//   - Green: success, completions
//   - Cyan: info, counts, scores
//   - Bold: headers, labels
//   - Dim: paths, commit hashes
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/kraklabs/symdex/pkg/ingestion"
)

// Pre-configured color instances. They honour color.NoColor when called.
var (
	Red     = color.New(color.FgRed)
	Yellow  = color.New(color.FgYellow)
	Green   = color.New(color.FgGreen)
	Cyan    = color.New(color.FgCyan)
	Magenta = color.New(color.FgMagenta)
	Blue    = color.New(color.FgBlue)
	Bold    = color.New(color.Bold)
	Dim     = color.New(color.Faint)
)

// Output is where the message helpers write. Tests swap it for a buffer.
var Output io.Writer = os.Stdout

// InitColors configures global color output. Call it once after flag
// parsing.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// ColorEnabled reports whether colored output should be used for f.
func ColorEnabled(noColor bool, f *os.File) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Success prints a green message with a checkmark prefix.
//
// Example output: "✓ Cloned kraklabs/symdex (main @ 3f2a1c9)"
func Success(msg string) {
	_, _ = Green.Fprintln(Output, "✓ "+msg)
}

// Successf is Success with formatting.
func Successf(format string, args ...any) {
	_, _ = Green.Fprintf(Output, "✓ "+format+"\n", args...)
}

// Warning prints a yellow message with a warning symbol prefix.
//
// Example output: "⚠ 3 files failed to parse"
func Warning(msg string) {
	_, _ = Yellow.Fprintln(Output, "⚠ "+msg)
}

// Warningf is Warning with formatting.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(Output, "⚠ "+format+"\n", args...)
}

// Error prints a red message with an X prefix.
func Error(msg string) {
	_, _ = Red.Fprintln(Output, "✗ "+msg)
}

// Errorf is Error with formatting.
func Errorf(format string, args ...any) {
	_, _ = Red.Fprintf(Output, "✗ "+format+"\n", args...)
}

// Info prints a cyan message with an info symbol prefix.
func Info(msg string) {
	_, _ = Cyan.Fprintln(Output, "ℹ "+msg)
}

// Infof is Info with formatting.
func Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(Output, "ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline separator.
//
//	Index Summary
//	=============
func Header(text string) {
	_, _ = Bold.Fprintln(Output, text)
	fmt.Fprintln(Output, strings.Repeat("=", len([]rune(text))))
}

// SubHeader prints a bold sub-header without an underline.
func SubHeader(text string) {
	_, _ = Bold.Fprintln(Output, text)
}

// Label returns a bold-formatted label string for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for paths and hashes.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count value.
func CountText(count int) string {
	return Cyan.Sprint(count)
}

// ScoreText formats a search score with two decimals.
func ScoreText(score float64) string {
	return Cyan.Sprintf("%.2f", score)
}

// KindText returns the symbol kind colored by category: types in magenta,
// callables in green, everything else in blue.
func KindText(kind ingestion.SymbolKind) string {
	switch kind {
	case ingestion.KindClass, ingestion.KindInterface, ingestion.KindEnum:
		return Magenta.Sprint(string(kind))
	case ingestion.KindFunction, ingestion.KindMethod:
		return Green.Sprint(string(kind))
	default:
		return Blue.Sprint(string(kind))
	}
}
