package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"matriz-curricular/backend/internal/curriculum"
	"matriz-curricular/backend/internal/dto"
	"matriz-curricular/backend/internal/model"
	"matriz-curricular/backend/internal/repository"
)

// ── Reconciliation ──────────────────────────────────────────
//
// Each parsed entry is matched against the stored entry of the same matrix
// and date, then classified:
//   - no stored entry            → INSERT
//   - every compared field equal → UNCHANGED
//   - force                      → UPDATE of every differing field
//   - no force                   → UPDATE of the differing editable fields
//                                  only; normative drift is kept as is
//
// The plan is computed in one pass. Only the materialized preview is
// truncated.
// ─────────────────────────────────────────────────────────────

// Action is the classification of one parsed entry.
type Action string

const (
	ActionInsert    Action = "INSERT"
	ActionUpdate    Action = "UPDATE"
	ActionUnchanged Action = "UNCHANGED"
)

// entryField describes one compared column. Normative fields are only
// written under force.
type entryField struct {
	column    string
	normative bool
	value     func(curriculum.Entry) string
}

// entryFields is the field policy, in display order.
var entryFields = []entryField{
	{"campo", true, func(e curriculum.Entry) string { return string(e.Campo) }},
	{"objective_code", true, func(e curriculum.Entry) string { return e.ObjectiveCode }},
	{"objective_text", true, func(e curriculum.Entry) string { return e.ObjectiveText }},
	{"curriculum_text", true, func(e curriculum.Entry) string { return e.CurriculumText }},
	{"week_of_year", true, func(e curriculum.Entry) string { return strconv.Itoa(e.WeekOfYear) }},
	{"day_of_week", true, func(e curriculum.Entry) string { return strconv.Itoa(e.DayOfWeek) }},
	{"bimester", true, func(e curriculum.Entry) string {
		if e.Bimester == nil {
			return ""
		}
		return strconv.Itoa(*e.Bimester)
	}},
	{"intentionality", false, func(e curriculum.Entry) string { return e.Intentionality }},
	{"example_activity", false, func(e curriculum.Entry) string { return e.ExampleActivity }},
}

// Decision is the classification of one parsed entry.
type Decision struct {
	Action   Action
	Entry    curriculum.Entry
	Existing *model.MatrixEntry // nil for INSERT
	// Changed lists the columns an UPDATE writes.
	Changed []string
	// Protected lists normative columns that differ but stay untouched.
	Protected []string
	// Err is set when the stored entry could not be read.
	Err error
}

// Plan is the full classification of a parse result.
type Plan struct {
	Decisions []Decision
	Inserts   int
	Updates   int
	Unchanged int
	Failed    int
}

// Preview materializes at most limit decisions with full detail.
func (p *Plan) Preview(limit int) []dto.PreviewItem {
	items := make([]dto.PreviewItem, 0, min(limit, len(p.Decisions)))
	for _, d := range p.Decisions {
		if len(items) == limit {
			break
		}
		if d.Err != nil {
			continue
		}
		items = append(items, dto.PreviewItem{
			Action:          string(d.Action),
			Date:            d.Entry.Key(),
			Entry:           d.Entry,
			ChangedFields:   d.Changed,
			ProtectedFields: d.Protected,
		})
	}
	return items
}

// Reconciler classifies parsed entries against stored ones.
type Reconciler struct {
	entries repository.MatrixEntryRepository
	loc     *time.Location
}

func NewReconciler(entries repository.MatrixEntryRepository, loc *time.Location) *Reconciler {
	return &Reconciler{entries: entries, loc: loc}
}

// Plan looks up and classifies every entry in order.
func (r *Reconciler) Plan(ctx context.Context, matrixID string, entries []curriculum.Entry, force bool) *Plan {
	plan := &Plan{Decisions: make([]Decision, 0, len(entries))}
	for _, e := range entries {
		d := r.decide(ctx, matrixID, e, force)
		plan.Decisions = append(plan.Decisions, d)
		switch {
		case d.Err != nil:
			plan.Failed++
		case d.Action == ActionInsert:
			plan.Inserts++
		case d.Action == ActionUpdate:
			plan.Updates++
		default:
			plan.Unchanged++
		}
	}
	return plan
}

func (r *Reconciler) decide(ctx context.Context, matrixID string, e curriculum.Entry, force bool) Decision {
	existing, err := r.entries.GetByMatrixAndDate(ctx, matrixID, e.Key())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{Action: ActionInsert, Entry: e}
	}
	if err != nil {
		return Decision{Entry: e, Err: fmt.Errorf("lookup: %w", err)}
	}
	d := Classify(e, existing.Parsed(r.loc), force)
	d.Existing = existing
	return d
}

// Classify compares a parsed entry with the stored one of the same date.
func Classify(parsed, stored curriculum.Entry, force bool) Decision {
	d := Decision{Action: ActionUnchanged, Entry: parsed}
	for _, f := range entryFields {
		if curriculum.NormalizeText(f.value(parsed)) == curriculum.NormalizeText(f.value(stored)) {
			continue
		}
		if f.normative && !force {
			d.Protected = append(d.Protected, f.column)
			continue
		}
		d.Changed = append(d.Changed, f.column)
	}
	if len(d.Changed) > 0 {
		d.Action = ActionUpdate
	}
	return d
}
