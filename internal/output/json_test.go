// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"local_path": "/data/repos/symdex",
		"depth":      1,
	}

	if err := JSONTo(&buf, data); err != nil {
		t.Fatalf("JSONTo failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `  "local_path": "/data/repos/symdex"`) {
		t.Errorf("Expected indented local_path field, got: %s", out)
	}
	if !strings.Contains(out, `"depth": 1`) {
		t.Errorf("Missing depth field, got: %s", out)
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("Expected trailing newline, got: %q", out)
	}
}

func TestJSONTo_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	err := JSONTo(&buf, map[string]any{"ch": make(chan int)})
	if err == nil || !strings.Contains(err.Error(), "JSON encoding failed") {
		t.Errorf("JSONTo(chan) error = %v", err)
	}
}

func TestPrinter_Emit(t *testing.T) {
	type result struct {
		Files int `json:"files"`
	}
	text := func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "Files: 3")
		return err
	}

	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	if err := p.Emit(result{Files: 3}, text); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Files: 3\n" {
		t.Errorf("text mode output = %q", buf.String())
	}

	buf.Reset()
	p = NewPrinter(&buf, true)
	if !p.JSONMode() {
		t.Error("JSONMode() = false")
	}
	if err := p.Emit(result{Files: 3}, text); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"files\": 3\n}\n" {
		t.Errorf("json mode output = %q", buf.String())
	}

	buf.Reset()
	p = NewPrinter(&buf, false)
	if err := p.Emit(result{}, nil); err != nil || buf.Len() != 0 {
		t.Errorf("nil renderer wrote %q, err %v", buf.String(), err)
	}

	boom := errors.New("boom")
	err := p.Emit(result{}, func(io.Writer) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Emit error = %v, want boom", err)
	}
}

func TestTable(t *testing.T) {
	tbl := NewTable("SCORE", "KIND", "NAME")
	tbl.Row("1.00", "function", "alpha")
	tbl.Row("0.70", "method", "get_alpha_value")

	var buf bytes.Buffer
	n, err := tbl.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d", n, buf.Len())
	}
	want := "SCORE  KIND      NAME\n" +
		"1.00   function  alpha\n" +
		"0.70   method    get_alpha_value\n"
	if buf.String() != want {
		t.Errorf("table =\n%s\nwant\n%s", buf.String(), want)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
}

func TestTable_NoHeader(t *testing.T) {
	tbl := NewTable()
	tbl.Row("a.py", "12")
	var buf bytes.Buffer
	if _, err := tbl.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a.py  12\n" {
		t.Errorf("table = %q", buf.String())
	}
}
