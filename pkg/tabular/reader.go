// Package tabular parses delimited tabular text into header-mapped records
// for the standards ingestion pipeline. It performs no file or network I/O;
// callers hand it already-read text.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Record is a single data row, keyed by column header. Line is the 1-based
// source line of the row's first field, so diagnostics stay accurate even
// when earlier rows contain quoted multiline cells.
type Record struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value for a column, or "" if the column is absent.
func (r Record) Get(column string) string {
	return r.Fields[column]
}

// Parse reads comma-delimited text with an initial header line and returns
// its data rows in input order.
//
// Quoting follows RFC 4180: fields may be quoted, quoted fields may contain
// commas, line breaks, and doubled-quote escapes. Both CRLF and LF endings
// are accepted, and a final record without a trailing newline is kept.
// Cell values are whitespace-trimmed. Rows whose cells are all empty after
// trimming are dropped. An input with a header but no data rows yields an
// empty slice; row-count expectations belong to the caller.
func Parse(input string) ([]Record, error) {
	reader := csv.NewReader(strings.NewReader(input))
	reader.FieldsPerRecord = -1 // ragged rows allowed; missing cells read as ""

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse row: %w", err)
		}

		line, _ := reader.FieldPos(0)

		fields := make(map[string]string, len(columns))
		blank := true
		for i, col := range columns {
			if col == "" {
				continue
			}
			var value string
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			if value != "" {
				blank = false
			}
			fields[col] = value
		}
		// Cells beyond the header width have no column name and are dropped,
		// but they still disqualify the row from being blank.
		for i := len(columns); i < len(row); i++ {
			if strings.TrimSpace(row[i]) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}

		records = append(records, Record{Line: line, Fields: fields})
	}

	return records, nil
}
