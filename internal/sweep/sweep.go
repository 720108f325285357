// Package sweep removes registry records that are known-obsolete seed data.
// Early versions of the scraper shipped a populate script that hardcoded a
// fixed set of job boards; those records linger in some environments and
// shadow the operator-maintained CSV imports.
package sweep

import (
	"context"
	"log"

	"github.com/remotehive/boardreg/pkg/registry"
)

// DefaultObsoleteNames is the board list created by the retired populate
// script. Sweeping these is safe because the provenance check below protects
// records an operator has since re-created under the same name.
var DefaultObsoleteNames = []string{
	"Indeed Jobs",
	"LinkedIn Jobs",
	"Glassdoor",
	"Monster",
	"ZipRecruiter",
	"CareerBuilder",
	"Dice",
	"Remote OK",
	"We Work Remotely",
	"AngelList",
	"FlexJobs",
	"Upwork",
	"Freelancer",
	"Toptal",
	"Guru",
	"Stack Overflow Jobs",
	"GitHub Jobs",
}

// Result reports the outcome of one sweep. NotFound lists requested names
// that had no record (already absent), Retained lists names whose record was
// left alone because its origin is not seed, Failed lists names whose lookup
// or delete hit a store error. The split makes re-runs idempotent and
// auditable.
type Result struct {
	DeletedCount int       `json:"deleted_count"`
	Deleted      []string  `json:"deleted,omitempty"`
	NotFound     []string  `json:"not_found,omitempty"`
	Retained     []string  `json:"retained,omitempty"`
	Failed       []Failure `json:"failed,omitempty"`
}

// Failure records a name whose lookup or delete failed at the store. The
// sweep continues past it; re-running the sweep retries the name.
type Failure struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Sweeper deletes obsolete seed records from one environment's registry.
type Sweeper struct {
	store *registry.Store
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store *registry.Store) *Sweeper {
	return &Sweeper{store: store}
}

// Sweep looks up each obsolete name by its normalized natural key and
// deletes the record only when its origin is seed. A record with the same
// key but origin csv-import or manual was intentionally re-created by an
// operator and is retained. A store error on one name is isolated to that
// name and recorded in Failed; the rest of the sweep continues, so a partial
// sweep still reports what it deleted.
func (s *Sweeper) Sweep(ctx context.Context, obsoleteNames []string) *Result {
	result := &Result{}

	for _, name := range obsoleteNames {
		key := registry.NaturalKey(name)

		record, err := s.store.Get(ctx, key)
		if err != nil {
			if registry.IsNotFound(err) {
				result.NotFound = append(result.NotFound, name)
				continue
			}
			log.Printf("[Sweep] Lookup failed for %q: %v (continuing)", name, err)
			result.Failed = append(result.Failed, Failure{Name: name, Message: err.Error()})
			continue
		}

		if record.Origin != registry.OriginSeed {
			log.Printf("[Sweep] Retaining %q: origin is %s, not seed", name, record.Origin)
			result.Retained = append(result.Retained, name)
			continue
		}

		deleted, err := s.store.Delete(ctx, key)
		if err != nil {
			log.Printf("[Sweep] Delete failed for %q: %v (continuing)", name, err)
			result.Failed = append(result.Failed, Failure{Name: name, Message: err.Error()})
			continue
		}
		if !deleted {
			// Removed between lookup and delete; treat as already absent
			result.NotFound = append(result.NotFound, name)
			continue
		}

		log.Printf("[Sweep] Deleted seed board %q from env %s", name, s.store.EnvName())
		result.DeletedCount++
		result.Deleted = append(result.Deleted, name)
	}

	return result
}
