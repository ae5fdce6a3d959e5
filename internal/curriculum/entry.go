package curriculum

import (
	"errors"
	"time"
)

// ── Parse errors ──
//
// Every error below is block-scoped: the aggregator records it against the
// offending block and keeps scanning.

var (
	ErrInvalidDate     = errors.New("invalid date marker")
	ErrUnknownWeekday  = errors.New("unrecognized day-of-week abbreviation")
	ErrWeekdayMismatch = errors.New("day name does not match the date")
	ErrUnknownCampo    = errors.New("unrecognized field of experience")
	ErrTextTooShort    = errors.New("text below minimum length")
	ErrEmptyBlock      = errors.New("block has no content")
	ErrMissingCampo    = errors.New("block has no field-of-experience description")
	ErrDuplicateDate   = errors.New("duplicate date")
	ErrMissingLocation = errors.New("parse options: location is required")
)

// DateLayout is the canonical key format for a plan date.
const DateLayout = "2006-01-02"

// Entry is one date-anchored curriculum record produced by a parse pass.
// It lives only as long as the import call that produced it.
type Entry struct {
	Date            time.Time `json:"date" yaml:"date"`
	WeekOfYear      int       `json:"week_of_year" yaml:"week_of_year"`
	DayOfWeek       int       `json:"day_of_week" yaml:"day_of_week"` // 0=Sunday … 6=Saturday
	Bimester        *int      `json:"bimester,omitempty" yaml:"bimester,omitempty"`
	Campo           Campo     `json:"campo" yaml:"campo"`
	ObjectiveCode   string    `json:"objective_code,omitempty" yaml:"objective_code,omitempty"`
	ObjectiveText   string    `json:"objective_text" yaml:"objective_text"`
	CurriculumText  string    `json:"curriculum_text" yaml:"curriculum_text"`
	Intentionality  string    `json:"intentionality,omitempty" yaml:"intentionality,omitempty"`
	ExampleActivity string    `json:"example_activity,omitempty" yaml:"example_activity,omitempty"`
	Line            int       `json:"line" yaml:"line"`
}

// Key returns the date key used for uniqueness within a matrix.
func (e Entry) Key() string {
	return e.Date.Format(DateLayout)
}

// ParseResult is the outcome of a full parse pass: every valid entry in
// document order plus the human-readable problems found along the way.
type ParseResult struct {
	Entries        []Entry  `json:"entries" yaml:"entries"`
	TotalExtracted int      `json:"total_extracted" yaml:"total_extracted"`
	Errors         []string `json:"errors" yaml:"errors"`
}

// Options controls a parse pass.
type Options struct {
	// Year anchors the dd/mm markers (the matrix year).
	Year int
	// Location pins every date to a stable civil offset.
	Location *time.Location
	// MinTextLength is the exclusive lower bound, in runes, for the
	// objective and curriculum texts. Zero means DefaultMinTextLength.
	MinTextLength int
}

// DefaultMinTextLength is used when Options.MinTextLength is zero.
const DefaultMinTextLength = 10

func (o Options) minLength() int {
	if o.MinTextLength <= 0 {
		return DefaultMinTextLength
	}
	return o.MinTextLength
}
