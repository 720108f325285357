package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/remotehive/boardreg/pkg/registry"
)

// FailureKind classifies a per-row failure in a reconciliation summary.
type FailureKind string

const (
	// FailureValidation marks a row rejected by mapping or schema validation
	FailureValidation FailureKind = "validation"

	// FailureDuplicateInBatch marks a row superseded by a later row with the
	// same natural key in the same batch
	FailureDuplicateInBatch FailureKind = "duplicate_in_batch"

	// FailureStoreWrite marks a record whose write to the store failed
	FailureStoreWrite FailureKind = "store_write"
)

// Failure is one captured per-row failure. Failures never abort the batch;
// callers inspect them to decide whether to retry the failed subset.
type Failure struct {
	RowIndex   int         `json:"row_index"`
	NaturalKey string      `json:"natural_key,omitempty"`
	Kind       FailureKind `json:"kind"`
	Message    string      `json:"message"`
}

// Summary is the result of applying one reconciliation plan.
type Summary struct {
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Failed    []Failure `json:"failed,omitempty"`
}

// Engine reconciles uploaded batches against one environment's registry.
// A single batch is processed sequentially in row order (the duplicate
// resolution rule depends on it); independent batches may run concurrently
// because the store serializes conflicting writes per natural key.
type Engine struct {
	store *registry.Store
	now   func() time.Time
}

// NewEngine creates a reconciliation engine over the given store.
func NewEngine(store *registry.Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
	}
}

// Snapshot loads the current registry state keyed by natural key. BuildPlan
// diffs incoming batches against this snapshot.
func (e *Engine) Snapshot(ctx context.Context) (map[string]*registry.JobBoardRecord, error) {
	records, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot registry: %w", err)
	}

	current := make(map[string]*registry.JobBoardRecord, len(records))
	for _, record := range records {
		current[record.NaturalKey] = record
	}
	return current, nil
}

// Apply executes a plan against the store, one record at a time. A write
// failure is captured in the summary and does not abort the remaining
// records; after Apply returns, every created or updated record not listed
// in Failed is durably present with the new field values.
func (e *Engine) Apply(ctx context.Context, plan *Plan) *Summary {
	summary := &Summary{}

	for _, superseded := range plan.Superseded {
		summary.Failed = append(summary.Failed, Failure{
			RowIndex:   superseded.RowIndex,
			NaturalKey: superseded.NaturalKey,
			Kind:       FailureDuplicateInBatch,
			Message:    fmt.Sprintf("superseded by row %d with the same natural key", superseded.WinningRow),
		})
	}

	for _, entry := range plan.Entries {
		if entry.Action == ActionNoOp {
			summary.Unchanged++
			continue
		}

		record := *entry.Record
		record.LastReconciledAt = e.now().UTC()

		if _, err := e.store.Upsert(ctx, &record); err != nil {
			log.Printf("[Reconcile] Write failed for %q (row %d): %v (continuing)",
				entry.NaturalKey, entry.RowIndex, err)
			summary.Failed = append(summary.Failed, Failure{
				RowIndex:   entry.RowIndex,
				NaturalKey: entry.NaturalKey,
				Kind:       FailureStoreWrite,
				Message:    err.Error(),
			})
			continue
		}

		switch entry.Action {
		case ActionCreate:
			summary.Created++
		case ActionUpdate:
			summary.Updated++
		}
	}

	log.Printf("[Reconcile] Batch done for env %s: created=%d updated=%d unchanged=%d failed=%d",
		e.store.EnvName(), summary.Created, summary.Updated, summary.Unchanged, len(summary.Failed))

	return summary
}

// Reconcile is the full cycle: snapshot the registry, build the plan for the
// batch, and apply it. The returned plan lets callers show what was decided.
func (e *Engine) Reconcile(ctx context.Context, batch []InputRow) (*Summary, *Plan, error) {
	current, err := e.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	plan := BuildPlan(batch, current)
	return e.Apply(ctx, plan), plan, nil
}
