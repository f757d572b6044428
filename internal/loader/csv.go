// Package loader builds a rowctx.Table from a CSV file: the data source
// for the triagec eval subcommand. Built on the standard library's
// encoding/csv (see DESIGN.md for why no third-party CSV library is used).
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/rowctx"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/value"
)

// LoadCSV reads a header row followed by data rows from r and returns a
// rowctx.Table. canonicalize, if non-nil, rewrites each header name before
// it becomes a column name (config.Config.Canonicalize supplies this).
func LoadCSV(r io.Reader, canonicalize func(map[string]string) map[string]string) (rowctx.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return rowctx.Table{}, nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var table rowctx.Table
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		fields := make(map[string]string, len(header))
		order := make([]string, 0, len(header))
		for i, name := range header {
			if i < len(rec) {
				fields[name] = rec[i]
				order = append(order, name)
			}
		}
		if canonicalize != nil {
			fields = canonicalize(fields)
			// canonicalize may have renamed keys, and a map carries no key
			// order, so the header order is kept only when every header
			// name survived unchanged; otherwise the rewritten map is
			// ranged directly and the column order is arbitrary.
			same := len(fields) == len(order)
			for _, name := range order {
				if _, ok := fields[name]; !ok {
					same = false
					break
				}
			}
			if !same {
				order = order[:0]
				for name := range fields {
					order = append(order, name)
				}
			}
		}

		row := rowctx.NewRow()
		for _, name := range order {
			row.Set(name, parseCell(fields[name]))
		}
		table = append(table, row)
	}
	return table, nil
}

// parseCell infers a value.Value from a raw CSV cell: an empty cell is
// null, "true"/"false" (case-insensitive) are Bool, a cell parseable as an
// integer is Int, as a float is Real, and anything else is a Str.
func parseCell(cell string) value.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return value.Null{}
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return value.Bool{V: true}
	case "false":
		return value.Bool{V: false}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return value.Int{V: n}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return value.Real{V: f}
	}
	return value.Str{V: cell}
}

// WriteCSV renders table back to CSV, with header taken from the union of
// every row's field names in first-seen order.
func WriteCSV(w io.Writer, table rowctx.Table) error {
	var header []string
	seen := map[string]bool{}
	for _, row := range table {
		for _, name := range row.Names() {
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range table {
		rec := make([]string, len(header))
		for i, name := range header {
			if row.Has(name) {
				rec[i] = row.Get(name).String()
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
