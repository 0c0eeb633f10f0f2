// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output renders command results for the symdex CLI.
//
// Every command that supports --json builds a result value and hands it to
// a Printer together with a function that renders the human form:
//
//	p := output.NewPrinter(os.Stdout, globals.JSON)
//	err := p.Emit(snapshot, func(w io.Writer) error {
//	    _, err := fmt.Fprintf(w, "Cloned into %s\n", snapshot.LocalPath)
//	    return err
//	})
//
// Tabular text goes through Table, which aligns columns with text/tabwriter.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// JSON writes data as pretty-printed JSON to stdout.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data as pretty-printed JSON to w.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// Printer writes a result either as JSON or through a text renderer.
type Printer struct {
	w    io.Writer
	json bool
}

// NewPrinter returns a printer writing to w. A nil w writes to stdout.
func NewPrinter(w io.Writer, jsonMode bool) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w, json: jsonMode}
}

// JSONMode reports whether the printer emits JSON.
func (p *Printer) JSONMode() bool { return p.json }

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Emit writes data as JSON in JSON mode and calls text otherwise. A nil
// text renderer prints nothing in text mode.
func (p *Printer) Emit(data any, text func(w io.Writer) error) error {
	if p.json {
		return JSONTo(p.w, data)
	}
	if text == nil {
		return nil
	}
	return text(p.w)
}

// Table accumulates rows and writes them with aligned columns.
type Table struct {
	header []string
	rows   [][]string
}

// NewTable creates a table with the given column headers. Without headers
// only the rows are written.
func NewTable(header ...string) *Table {
	return &Table{header: header}
}

// Row appends a row. Missing trailing cells are left empty.
func (t *Table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// WriteTo writes the table to w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)
	if len(t.header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	}
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	err := tw.Flush()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
