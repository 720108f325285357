// Package mapper translates arbitrary CSV column headers into the canonical
// registry row fields using a configurable alias table. Operators upload CSV
// exports from several tools, so the same logical column arrives under many
// header spellings ("url", "Website", "base_url", ...).
package mapper

import (
	"fmt"
	"strings"

	"github.com/remotehive/boardreg/pkg/registry"
)

// AliasTable maps a canonical field name to the set of raw headers
// (case-insensitive) accepted for it. The canonical name itself is always
// accepted and does not need to be listed.
type AliasTable map[string][]string

// DefaultAliases covers the header spellings seen in real operator uploads.
func DefaultAliases() AliasTable {
	return AliasTable{
		registry.FieldDisplayName: {"name", "board", "job board", "job_board"},
		registry.FieldBaseURL:     {"url", "website", "site", "base url"},
		registry.FieldBoardType:   {"type", "category"},
		registry.FieldRegion:      {"region", "country"},
		registry.FieldIsActive:    {"active", "enabled"},
	}
}

// MissingFieldError reports a row that lacks a required canonical field after
// mapping. Row-level and recoverable: the batch continues without this row.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("row is missing required field %q", e.Field)
}

// Map translates a raw CSV row into a canonical-keyed row. Header matching is
// case-insensitive and ignores surrounding whitespace. Raw columns that match
// no canonical field are dropped. Returns a *MissingFieldError naming the
// first required field that could not be resolved.
//
// Map is a pure function: it never mutates rawRow.
func Map(rawRow map[string]string, aliases AliasTable) (map[string]string, error) {
	// Index the raw row by folded header
	folded := make(map[string]string, len(rawRow))
	for header, value := range rawRow {
		folded[foldHeader(header)] = value
	}

	mapped := make(map[string]string)
	for canonical, accepted := range aliases {
		if value, ok := folded[foldHeader(canonical)]; ok {
			mapped[canonical] = value
			continue
		}
		for _, alias := range accepted {
			if value, ok := folded[foldHeader(alias)]; ok {
				mapped[canonical] = value
				break
			}
		}
	}

	for _, required := range registry.RequiredFields {
		if strings.TrimSpace(mapped[required]) == "" {
			return nil, &MissingFieldError{Field: required}
		}
	}

	return mapped, nil
}

// foldHeader normalizes a header for comparison: lower-case, trimmed, and
// with underscores treated as spaces so "base_url" and "Base URL" match.
func foldHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}
