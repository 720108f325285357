// Package csvio parses uploaded job board CSV files into raw header-keyed
// rows for the field mapper. Parsing only; no interpretation of values.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Template is the header of the simple CSV format accepted without any
// custom alias configuration.
const Template = "name,url,region"

// defaultHeader is assumed when the first row looks like data rather than a
// header (legacy exports shipped without one).
var defaultHeader = []string{"name", "url", "region"}

// Read parses CSV content into raw rows keyed by header. The first record is
// treated as the header when any of its cells names a known column; otherwise
// the legacy name,url,region layout is assumed and the first record is data.
// Short rows are padded with empty strings, extra cells are dropped.
func Read(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // uploads are ragged, tolerate varying widths
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	header := defaultHeader
	data := records
	if looksLikeHeader(records[0]) {
		header = records[0]
		data = records[1:]
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("CSV file contains no data rows")
	}

	rows := make([]map[string]string, 0, len(data))
	for _, record := range data {
		if isBlank(record) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// looksLikeHeader reports whether a record is a header row. Matches the
// column names the importer has ever shipped templates with.
func looksLikeHeader(record []string) bool {
	for _, cell := range record {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "name", "url", "website", "base_url", "board", "job board", "type", "region":
			return true
		}
	}
	return false
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
