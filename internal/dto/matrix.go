package dto

// ── Matrix reads ──

// MatrixResponse matrix header.
type MatrixResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	Year       int    `json:"year"`
	Segment    string `json:"segment"`
	Revision   int    `json:"revision"`
	IsActive   bool   `json:"is_active"`
	EntryCount int    `json:"entry_count"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// MatrixEntryResponse one dated entry.
type MatrixEntryResponse struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	WeekOfYear      int     `json:"week_of_year"`
	DayOfWeek       int     `json:"day_of_week"`
	Bimester        *int    `json:"bimester,omitempty"`
	Campo           string  `json:"campo"`
	CampoLabel      string  `json:"campo_label"`
	ObjectiveCode   *string `json:"objective_code,omitempty"`
	ObjectiveText   string  `json:"objective_text"`
	CurriculumText  string  `json:"curriculum_text"`
	Intentionality  *string `json:"intentionality,omitempty"`
	ExampleActivity *string `json:"example_activity,omitempty"`
	Version         int     `json:"version"`
	UpdatedAt       string  `json:"updated_at"`
}

// ListEntriesRequest query of GET /matrices/:id/entries.
type ListEntriesRequest struct {
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Campo    string `form:"campo" binding:"omitempty,oneof=EO CG TS EF ET"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=400"`
}

// Normalize fills paging defaults.
func (r *ListEntriesRequest) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = 100
	}
}

// EntryPage cached page of entries plus the total before paging.
type EntryPage struct {
	Entries []MatrixEntryResponse `json:"entries"`
	Total   int64                 `json:"total"`
}
