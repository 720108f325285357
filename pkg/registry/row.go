package registry

import (
	"strconv"
	"strings"
)

// Canonical row field names produced by the field mapper and consumed by
// FromRow. These match the Redis hash field names.
const (
	FieldDisplayName = "display_name"
	FieldBaseURL     = "base_url"
	FieldBoardType   = "board_type"
	FieldRegion      = "region"
	FieldIsActive    = "is_active"
)

// RequiredFields lists the canonical fields a mapped row must carry.
// board_type, region and is_active are optional with defaults.
var RequiredFields = []string{FieldDisplayName, FieldBaseURL}

// FromRow builds a validated JobBoardRecord from a canonical-keyed row as
// produced by the field mapper. Defaults applied:
//   - board_type: custom when absent (unknown values are still rejected)
//   - region: "Global" when absent
//   - is_active: true when absent
//   - base_url: "https://" is prefixed when the URL carries no scheme
//
// The record's origin is always csv-import; seed and manual records are
// never created through row parsing.
func FromRow(row map[string]string) (*JobBoardRecord, error) {
	displayName := strings.TrimSpace(row[FieldDisplayName])

	baseURL := strings.TrimSpace(row[FieldBaseURL])
	if baseURL != "" && !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	boardType := BoardTypeCustom
	if raw := strings.TrimSpace(row[FieldBoardType]); raw != "" {
		boardType = BoardType(strings.ToLower(raw))
	}

	region := strings.TrimSpace(row[FieldRegion])
	if region == "" {
		region = "Global"
	}

	isActive := true
	if raw := strings.TrimSpace(row[FieldIsActive]); raw != "" {
		parsed, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return nil, &ValidationError{Field: FieldIsActive, Reason: "must be a boolean, got " + strconv.Quote(raw)}
		}
		isActive = parsed
	}

	record := &JobBoardRecord{
		NaturalKey:  NaturalKey(displayName),
		DisplayName: displayName,
		BoardType:   boardType,
		BaseURL:     baseURL,
		Region:      region,
		IsActive:    isActive,
		Origin:      OriginCSVImport,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}
