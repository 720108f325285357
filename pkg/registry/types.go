package registry

import (
	"fmt"
	"net/url"
	"time"
)

// JobBoardRecord represents one job board source definition in the registry.
// Records are matched across uploads and environments by NaturalKey, which is
// derived from the display name; StorageID is the datastore-assigned identity
// and is never reused or rewritten once set.
type JobBoardRecord struct {
	NaturalKey       string    `json:"natural_key"`        // Normalized display name, unique within an environment
	StorageID        string    `json:"storage_id"`         // UUID assigned by the store on creation, immutable
	DisplayName      string    `json:"display_name"`       // Human-readable name, source of NaturalKey
	BoardType        BoardType `json:"board_type"`         // Category of the source
	BaseURL          string    `json:"base_url"`           // Required, must be an absolute http(s) URL
	Region           string    `json:"region"`             // Free-form region label, defaults to "Global"
	IsActive         bool      `json:"is_active"`          // Whether the scraper pipeline considers this board
	Origin           Origin    `json:"origin"`             // Provenance tag consumed by the dedup sweep
	LastReconciledAt time.Time `json:"last_reconciled_at"` // Set on every create/update by the reconciliation engine
}

// BoardType is the enumerated category of a job board source.
type BoardType string

const (
	// BoardTypeAggregator represents multi-company job aggregators (Indeed, Monster)
	BoardTypeAggregator BoardType = "aggregator"

	// BoardTypeCompanyPage represents a single company's career page
	BoardTypeCompanyPage BoardType = "company-career-page"

	// BoardTypeFreelance represents freelance marketplaces (Upwork, Toptal)
	BoardTypeFreelance BoardType = "freelance-marketplace"

	// BoardTypeCustom represents operator-defined boards that fit no other category.
	// CSV rows that carry no type column default to custom.
	BoardTypeCustom BoardType = "custom"
)

// Origin tags where a registry record came from.
type Origin string

const (
	// OriginSeed marks records created by the retired seed scripts
	OriginSeed Origin = "seed"

	// OriginCSVImport marks records created or updated via CSV upload
	OriginCSVImport Origin = "csv-import"

	// OriginManual marks records created by an operator through admin tooling
	OriginManual Origin = "manual"
)

// Validate checks if the JobBoardRecord has valid field values.
// Returns a *ValidationError if any check fails.
func (r *JobBoardRecord) Validate() error {
	if r.DisplayName == "" {
		return &ValidationError{Field: "display_name", Reason: "cannot be empty"}
	}

	if r.NaturalKey == "" {
		return &ValidationError{Field: "natural_key", Reason: "cannot be empty"}
	}

	if r.NaturalKey != NaturalKey(r.DisplayName) {
		return &ValidationError{
			Field:  "natural_key",
			Reason: fmt.Sprintf("%q does not match normalized display name %q", r.NaturalKey, NaturalKey(r.DisplayName)),
		}
	}

	if err := validateBaseURL(r.BaseURL); err != nil {
		return err
	}

	if err := r.BoardType.Validate(); err != nil {
		return err
	}

	if err := r.Origin.Validate(); err != nil {
		return err
	}

	return nil
}

// validateBaseURL checks that s is a well-formed absolute http(s) URL.
func validateBaseURL(s string) error {
	if s == "" {
		return &ValidationError{Field: "base_url", Reason: "cannot be empty"}
	}

	u, err := url.Parse(s)
	if err != nil {
		return &ValidationError{Field: "base_url", Reason: fmt.Sprintf("not a valid URL: %v", err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "base_url", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	if u.Host == "" {
		return &ValidationError{Field: "base_url", Reason: "missing host"}
	}

	return nil
}

// Validate checks if the BoardType is a valid enum value.
func (t BoardType) Validate() error {
	switch t {
	case BoardTypeAggregator, BoardTypeCompanyPage, BoardTypeFreelance, BoardTypeCustom:
		return nil
	default:
		return &ValidationError{Field: "board_type", Reason: fmt.Sprintf("unknown board type: %q", t)}
	}
}

// Validate checks if the Origin is a valid enum value.
func (o Origin) Validate() error {
	switch o {
	case OriginSeed, OriginCSVImport, OriginManual:
		return nil
	default:
		return &ValidationError{Field: "origin", Reason: fmt.Sprintf("unknown origin: %q", o)}
	}
}

// Equal reports whether the mutable fields of two records match.
// StorageID and LastReconciledAt are excluded: the former is store-owned,
// the latter is refreshed on every write.
func (r *JobBoardRecord) Equal(other *JobBoardRecord) bool {
	return r.DisplayName == other.DisplayName &&
		r.BoardType == other.BoardType &&
		r.BaseURL == other.BaseURL &&
		r.Region == other.Region &&
		r.IsActive == other.IsActive &&
		r.Origin == other.Origin
}

// ValidationError describes a rejected row or field value. Row-level
// validation failures are recoverable: callers collect them per row and
// continue with the rest of the batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
