package model

import (
	"time"

	"matriz-curricular/backend/internal/curriculum"
)

// Matrix curriculum matrix of one school year and segment, maps to matrices
type Matrix struct {
	MatrixID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"matrix_id"`
	TenantID string `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	Name     string `gorm:"type:varchar(200);not null"                     json:"name"`
	Year     int    `gorm:"type:smallint;not null"                         json:"year"`
	Segment  string `gorm:"type:varchar(40);not null"                      json:"segment"` // bercario | maternal | pre
	// Revision of the curriculum document the matrix follows; not a lock column.
	Revision int  `gorm:"not null;default:1"           json:"revision"`
	IsActive bool `gorm:"not null;default:true"        json:"is_active"`
	SoftDeleteModel
}

func (Matrix) TableName() string { return "matrices" }

// MatrixEntry one dated curriculum record, maps to matrix_entries
type MatrixEntry struct {
	EntryID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	MatrixID        string    `gorm:"type:uuid;not null"                             json:"matrix_id"`
	Date            time.Time `gorm:"type:date;not null"                             json:"date"`
	WeekOfYear      int       `gorm:"type:smallint;not null"                         json:"week_of_year"`
	DayOfWeek       int       `gorm:"type:smallint;not null"                         json:"day_of_week"`
	Bimester        *int      `gorm:"type:smallint"                                  json:"bimester,omitempty"`
	Campo           string    `gorm:"type:varchar(2);not null"                       json:"campo"` // EO | CG | TS | EF | ET
	ObjectiveCode   *string   `gorm:"type:varchar(20)"                               json:"objective_code,omitempty"`
	ObjectiveText   string    `gorm:"type:text;not null"                             json:"objective_text"`
	CurriculumText  string    `gorm:"type:text;not null"                             json:"curriculum_text"`
	Intentionality  *string   `gorm:"type:text"                                      json:"intentionality,omitempty"`
	ExampleActivity *string   `gorm:"type:text"                                      json:"example_activity,omitempty"`
	VersionedModel

	// associations
	Matrix *Matrix `gorm:"foreignKey:MatrixID;references:MatrixID" json:"matrix,omitempty"`
}

func (MatrixEntry) TableName() string { return "matrix_entries" }

// DateKey returns the civil date in curriculum.DateLayout, independent of
// the location the driver scanned it in.
func (e *MatrixEntry) DateKey() string {
	return e.Date.Format(curriculum.DateLayout)
}

// NewMatrixEntry builds a row from a parsed entry.
func NewMatrixEntry(matrixID string, p curriculum.Entry, actorID *string) *MatrixEntry {
	e := &MatrixEntry{
		MatrixID: matrixID,
		Date:     p.Date,
	}
	e.CreatedBy = actorID
	e.UpdatedBy = actorID
	e.Version = 1
	e.Assign(p)
	return e
}

// Assign copies every parsed field onto e.
func (e *MatrixEntry) Assign(p curriculum.Entry) {
	e.WeekOfYear = p.WeekOfYear
	e.DayOfWeek = p.DayOfWeek
	e.Bimester = p.Bimester
	e.Campo = string(p.Campo)
	e.ObjectiveCode = optional(p.ObjectiveCode)
	e.ObjectiveText = p.ObjectiveText
	e.CurriculumText = p.CurriculumText
	e.Intentionality = optional(p.Intentionality)
	e.ExampleActivity = optional(p.ExampleActivity)
}

// Parsed converts a row back to the parser's shape, dates anchored in loc.
func (e *MatrixEntry) Parsed(loc *time.Location) curriculum.Entry {
	y, m, d := e.Date.Date()
	return curriculum.Entry{
		Date:            time.Date(y, m, d, 0, 0, 0, 0, loc),
		WeekOfYear:      e.WeekOfYear,
		DayOfWeek:       e.DayOfWeek,
		Bimester:        e.Bimester,
		Campo:           curriculum.Campo(e.Campo),
		ObjectiveCode:   deref(e.ObjectiveCode),
		ObjectiveText:   e.ObjectiveText,
		CurriculumText:  e.CurriculumText,
		Intentionality:  deref(e.Intentionality),
		ExampleActivity: deref(e.ExampleActivity),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
