package dto

import "matriz-curricular/backend/internal/curriculum"

// ── Annual plan import ──

// ImportMode distinguishes a preview from a persisting run.
type ImportMode string

const (
	ImportModeDryRun ImportMode = "DRY_RUN"
	ImportModeApply  ImportMode = "APPLY"
)

// ImportRequest multipart form fields next to the uploaded file.
type ImportRequest struct {
	Force  bool   `form:"force"`
	Format string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// PreviewItem one classified operation with full detail.
type PreviewItem struct {
	Action        string           `json:"action" yaml:"action"` // INSERT | UPDATE | UNCHANGED
	Date          string           `json:"date" yaml:"date"`
	Entry         curriculum.Entry `json:"entry" yaml:"entry"`
	ChangedFields []string         `json:"changed_fields,omitempty" yaml:"changed_fields,omitempty"`
	// ProtectedFields differ from the stored entry but were kept because force was off.
	ProtectedFields []string `json:"protected_fields,omitempty" yaml:"protected_fields,omitempty"`
}

// ImportResult is returned by both import modes.
type ImportResult struct {
	Mode           ImportMode    `json:"mode" yaml:"mode"`
	MatrixID       string        `json:"matrix_id,omitempty" yaml:"matrix_id,omitempty"`
	TotalExtracted int           `json:"total_extracted" yaml:"total_extracted"`
	TotalInserted  int           `json:"total_inserted" yaml:"total_inserted"`
	TotalUpdated   int           `json:"total_updated" yaml:"total_updated"`
	TotalUnchanged int           `json:"total_unchanged" yaml:"total_unchanged"`
	TotalFailed    int           `json:"total_failed" yaml:"total_failed"`
	Preview        []PreviewItem `json:"preview,omitempty" yaml:"preview,omitempty"`
	Errors         []string      `json:"errors" yaml:"errors"`
}
