package registry

import (
	"fmt"
	"strconv"
	"time"
)

// Serialization helpers for converting between JobBoardRecord structs and
// Redis hashes.
//
// Redis stores data as string-to-string maps (hashes). Scalar fields map
// directly; booleans and timestamps are encoded as strconv strings so that
// individual fields stay inspectable with plain HGET.

// RecordToHash converts a JobBoardRecord to a Redis hash format.
func RecordToHash(r *JobBoardRecord) map[string]interface{} {
	return map[string]interface{}{
		"natural_key":           r.NaturalKey,
		"storage_id":            r.StorageID,
		"display_name":          r.DisplayName,
		"board_type":            string(r.BoardType),
		"base_url":              r.BaseURL,
		"region":                r.Region,
		"is_active":             strconv.FormatBool(r.IsActive),
		"origin":                string(r.Origin),
		"last_reconciled_at_ms": r.LastReconciledAt.UnixMilli(),
	}
}

// HashToRecord converts a Redis hash back to a JobBoardRecord.
func HashToRecord(hash map[string]string) (*JobBoardRecord, error) {
	isActive, err := strconv.ParseBool(hash["is_active"])
	if err != nil {
		return nil, fmt.Errorf("invalid is_active field %q: %w", hash["is_active"], err)
	}

	reconciledMs, err := strconv.ParseInt(hash["last_reconciled_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid last_reconciled_at_ms field %q: %w", hash["last_reconciled_at_ms"], err)
	}

	return &JobBoardRecord{
		NaturalKey:       hash["natural_key"],
		StorageID:        hash["storage_id"],
		DisplayName:      hash["display_name"],
		BoardType:        BoardType(hash["board_type"]),
		BaseURL:          hash["base_url"],
		Region:           hash["region"],
		IsActive:         isActive,
		Origin:           Origin(hash["origin"]),
		LastReconciledAt: time.UnixMilli(reconciledMs).UTC(),
	}, nil
}
