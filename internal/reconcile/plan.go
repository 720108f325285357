// Package reconcile computes and applies create/update/no-op plans that bring
// the registry in line with an uploaded batch of job board rows.
package reconcile

import (
	"fmt"
	"strconv"

	"github.com/remotehive/boardreg/pkg/registry"
)

// Action is the reconciliation decision for one incoming record.
type Action string

const (
	// ActionCreate means no record exists for the natural key
	ActionCreate Action = "create"

	// ActionUpdate means a record exists and at least one mutable field differs
	ActionUpdate Action = "update"

	// ActionNoOp means a record exists and all mutable fields match
	ActionNoOp Action = "no-op"
)

// FieldChange records an old/new value pair for one changed field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// PlanEntry is the decision for one incoming row. Diff is populated only for
// updates and is limited to the fields that actually changed.
type PlanEntry struct {
	RowIndex   int
	NaturalKey string
	Action     Action
	Diff       map[string]FieldChange
	Record     *registry.JobBoardRecord
}

// Superseded records a row that lost the last-row-wins resolution for a
// natural key duplicated within the same batch.
type Superseded struct {
	RowIndex   int
	NaturalKey string
	WinningRow int
}

// Plan is the ordered reconciliation plan for one batch. It is ephemeral:
// built, applied, and discarded within a single reconcile call.
type Plan struct {
	Entries    []PlanEntry
	Superseded []Superseded
}

// InputRow pairs an incoming record with its position in the uploaded batch,
// so duplicate resolution and failures can reference source rows.
type InputRow struct {
	Index  int
	Record *registry.JobBoardRecord
}

// BuildPlan computes the plan for a batch against a snapshot of the current
// registry state, keyed by natural key. Rows are processed in input order.
// When a natural key appears more than once in the batch the last row wins;
// earlier rows are reported as superseded, not silently dropped.
func BuildPlan(batch []InputRow, current map[string]*registry.JobBoardRecord) *Plan {
	plan := &Plan{}

	// Last occurrence of each natural key wins
	winningRow := make(map[string]int, len(batch))
	for _, row := range batch {
		winningRow[row.Record.NaturalKey] = row.Index
	}

	for _, row := range batch {
		key := row.Record.NaturalKey
		if winner := winningRow[key]; winner != row.Index {
			plan.Superseded = append(plan.Superseded, Superseded{
				RowIndex:   row.Index,
				NaturalKey: key,
				WinningRow: winner,
			})
			continue
		}

		existing, ok := current[key]
		switch {
		case !ok:
			plan.Entries = append(plan.Entries, PlanEntry{
				RowIndex:   row.Index,
				NaturalKey: key,
				Action:     ActionCreate,
				Record:     row.Record,
			})
		case existing.Equal(row.Record):
			plan.Entries = append(plan.Entries, PlanEntry{
				RowIndex:   row.Index,
				NaturalKey: key,
				Action:     ActionNoOp,
				Record:     row.Record,
			})
		default:
			plan.Entries = append(plan.Entries, PlanEntry{
				RowIndex:   row.Index,
				NaturalKey: key,
				Action:     ActionUpdate,
				Diff:       diffRecords(existing, row.Record),
				Record:     row.Record,
			})
		}
	}

	return plan
}

// diffRecords returns the mutable fields that differ between the persisted
// record and the incoming one.
func diffRecords(existing, incoming *registry.JobBoardRecord) map[string]FieldChange {
	diff := make(map[string]FieldChange)

	if existing.DisplayName != incoming.DisplayName {
		diff["display_name"] = FieldChange{Old: existing.DisplayName, New: incoming.DisplayName}
	}
	if existing.BoardType != incoming.BoardType {
		diff["board_type"] = FieldChange{Old: string(existing.BoardType), New: string(incoming.BoardType)}
	}
	if existing.BaseURL != incoming.BaseURL {
		diff["base_url"] = FieldChange{Old: existing.BaseURL, New: incoming.BaseURL}
	}
	if existing.Region != incoming.Region {
		diff["region"] = FieldChange{Old: existing.Region, New: incoming.Region}
	}
	if existing.IsActive != incoming.IsActive {
		diff["is_active"] = FieldChange{
			Old: strconv.FormatBool(existing.IsActive),
			New: strconv.FormatBool(incoming.IsActive),
		}
	}
	if existing.Origin != incoming.Origin {
		diff["origin"] = FieldChange{Old: string(existing.Origin), New: string(incoming.Origin)}
	}

	return diff
}

// Counts summarises a plan by action, for dry-run output.
func (p *Plan) Counts() (creates, updates, noops int) {
	for _, entry := range p.Entries {
		switch entry.Action {
		case ActionCreate:
			creates++
		case ActionUpdate:
			updates++
		case ActionNoOp:
			noops++
		}
	}
	return creates, updates, noops
}

// String renders a one-line summary of the plan.
func (p *Plan) String() string {
	creates, updates, noops := p.Counts()
	return fmt.Sprintf("plan: %d create, %d update, %d no-op, %d superseded",
		creates, updates, noops, len(p.Superseded))
}
