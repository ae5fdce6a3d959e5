package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/internal/curriculum"
	"matriz-curricular/backend/internal/dto"
	"matriz-curricular/backend/internal/extract"
	"matriz-curricular/backend/internal/model"
	"matriz-curricular/backend/internal/repository"
)

// ── Import errors ──

var (
	ErrImportForbidden  = errors.New("caller is not allowed to import into this matrix")
	ErrMatrixNotFound   = errors.New("matrix not found")
	ErrImportInProgress = errors.New("another import is running for this matrix")
)

// ── MatrixImportService ─────────────────────────────────────
//
// Both modes run the same steps up to classification:
//   1. check permissions (before any parsing)
//   2. resolve the matrix
//   3. extract text, parse it
//   4. classify every entry against the stored matrix
// Apply then takes the matrix lock, persists each decision on its own,
// writes one audit record and bumps the tenant cache generation.
// Apply is not transactional across entries; a failed entry is reported
// as failed and the rest still commit.
// ─────────────────────────────────────────────────────────────

// MatrixImportService annual-plan import use cases
type MatrixImportService interface {
	// DryRun classifies without writing.
	DryRun(ctx context.Context, cmd ImportCommand) (*dto.ImportResult, error)
	// Apply classifies and persists.
	Apply(ctx context.Context, cmd ImportCommand) (*dto.ImportResult, error)
}

// ImportCommand is one import request.
type ImportCommand struct {
	Caller   authz.Caller
	MatrixID string
	Force    bool
	FileName string
	Content  io.Reader
	// FullPreview materializes every decision instead of the configured limit.
	FullPreview bool
}

// ImportOptions pipeline settings.
type ImportOptions struct {
	Location      *time.Location
	MinTextLength int
	PreviewLimit  int
}

// ImportCollaborators external contracts of the import pipeline.
type ImportCollaborators struct {
	Authority Authority
	Extractor extract.TextExtractor
	Audit     AuditSink
	Versions  CacheVersionBumper
	Locker    ImportLocker
}

// OutcomeKind is the result of persisting one decision.
type OutcomeKind string

const (
	OutcomeInserted  OutcomeKind = "inserted"
	OutcomeUpdated   OutcomeKind = "updated"
	OutcomeUnchanged OutcomeKind = "unchanged"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome tags one persisted entry.
type Outcome struct {
	Kind   OutcomeKind
	Date   string
	Reason string // only for OutcomeFailed
}

type matrixImportService struct {
	repo   *repository.Repository
	deps   ImportCollaborators
	opts   ImportOptions
	logger *zap.Logger
}

func NewMatrixImportService(repo *repository.Repository, deps ImportCollaborators, opts ImportOptions, logger *zap.Logger) MatrixImportService {
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = 5
	}
	return &matrixImportService{repo: repo, deps: deps, opts: opts, logger: logger}
}

// ════════════════════════════════════════════════════════════
// DryRun
// ════════════════════════════════════════════════════════════

func (s *matrixImportService) DryRun(ctx context.Context, cmd ImportCommand) (*dto.ImportResult, error) {
	matrix, parsed, err := s.prepare(ctx, cmd, authz.PermImportPreview)
	if err != nil {
		return nil, err
	}

	plan := NewReconciler(s.repo.MatrixEntry, s.opts.Location).Plan(ctx, matrix.MatrixID, parsed.Entries, cmd.Force)

	limit := s.opts.PreviewLimit
	if cmd.FullPreview {
		limit = len(plan.Decisions)
	}
	res := &dto.ImportResult{
		Mode:           dto.ImportModeDryRun,
		MatrixID:       matrix.MatrixID,
		TotalExtracted: parsed.TotalExtracted,
		TotalInserted:  plan.Inserts,
		TotalUpdated:   plan.Updates,
		TotalUnchanged: plan.Unchanged,
		TotalFailed:    plan.Failed,
		Preview:        plan.Preview(limit),
		Errors:         append(parsed.Errors, decisionErrors(plan)...),
	}

	s.logger.Info("matrix import dry-run",
		zap.String("matrix_id", matrix.MatrixID),
		zap.String("user_id", cmd.Caller.UserID),
		zap.Int("extracted", res.TotalExtracted),
		zap.Int("insert", res.TotalInserted),
		zap.Int("update", res.TotalUpdated),
		zap.Int("unchanged", res.TotalUnchanged),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

// ════════════════════════════════════════════════════════════
// Apply
// ════════════════════════════════════════════════════════════

func (s *matrixImportService) Apply(ctx context.Context, cmd ImportCommand) (*dto.ImportResult, error) {
	perms := []authz.Permission{authz.PermImportApply}
	if cmd.Force {
		perms = append(perms, authz.PermImportForce)
	}
	matrix, parsed, err := s.prepare(ctx, cmd, perms...)
	if err != nil {
		return nil, err
	}

	unlock, err := s.deps.Locker.Lock(ctx, matrix.MatrixID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	plan := NewReconciler(s.repo.MatrixEntry, s.opts.Location).Plan(ctx, matrix.MatrixID, parsed.Entries, cmd.Force)

	res := &dto.ImportResult{
		Mode:           dto.ImportModeApply,
		MatrixID:       matrix.MatrixID,
		TotalExtracted: parsed.TotalExtracted,
		Errors:         parsed.Errors,
	}
	actor := cmd.Caller.UserID
	for _, d := range plan.Decisions {
		o := s.persist(ctx, matrix.MatrixID, d, actor)
		switch o.Kind {
		case OutcomeInserted:
			res.TotalInserted++
		case OutcomeUpdated:
			res.TotalUpdated++
		case OutcomeUnchanged:
			res.TotalUnchanged++
		case OutcomeFailed:
			res.TotalFailed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", o.Date, o.Reason))
		}
	}

	if err := s.recordAudit(ctx, cmd, matrix, res); err != nil {
		s.logger.Error("failed to write import audit record", zap.String("matrix_id", matrix.MatrixID), zap.Error(err))
		res.Errors = append(res.Errors, "audit record not written: "+err.Error())
	}

	if res.TotalInserted+res.TotalUpdated > 0 {
		if _, err := s.deps.Versions.Bump(ctx, matrix.TenantID); err != nil {
			s.logger.Error("failed to bump cache version", zap.String("tenant_id", matrix.TenantID), zap.Error(err))
			res.Errors = append(res.Errors, "cache version not bumped: "+err.Error())
		}
	}

	s.logger.Info("matrix import applied",
		zap.String("matrix_id", matrix.MatrixID),
		zap.String("user_id", actor),
		zap.Bool("force", cmd.Force),
		zap.Int("extracted", res.TotalExtracted),
		zap.Int("inserted", res.TotalInserted),
		zap.Int("updated", res.TotalUpdated),
		zap.Int("unchanged", res.TotalUnchanged),
		zap.Int("failed", res.TotalFailed),
	)
	return res, nil
}

// ── Helpers ──

// prepare runs the steps shared by both modes. Permission and lookup
// failures return before the document is read.
func (s *matrixImportService) prepare(ctx context.Context, cmd ImportCommand, perms ...authz.Permission) (*model.Matrix, curriculum.ParseResult, error) {
	var none curriculum.ParseResult

	ok, err := s.deps.Authority.Allow(ctx, cmd.Caller, perms...)
	if err != nil {
		return nil, none, fmt.Errorf("authorize import: %w", err)
	}
	if !ok {
		return nil, none, ErrImportForbidden
	}

	matrix, err := s.repo.Matrix.GetByID(ctx, cmd.MatrixID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, none, ErrMatrixNotFound
		}
		s.logger.Error("failed to load matrix", zap.String("matrix_id", cmd.MatrixID), zap.Error(err))
		return nil, none, err
	}

	text, err := s.deps.Extractor.Extract(ctx, cmd.FileName, cmd.Content)
	if err != nil {
		return nil, none, fmt.Errorf("extract %q: %w", cmd.FileName, err)
	}

	parsed := curriculum.Parse(text, curriculum.Options{
		Year:          matrix.Year,
		Location:      s.opts.Location,
		MinTextLength: s.opts.MinTextLength,
	})
	return matrix, parsed, nil
}

// persist writes one decision and tags the outcome.
func (s *matrixImportService) persist(ctx context.Context, matrixID string, d Decision, actor string) Outcome {
	o := Outcome{Date: d.Entry.Key()}
	if d.Err != nil {
		o.Kind, o.Reason = OutcomeFailed, d.Err.Error()
		return o
	}

	switch d.Action {
	case ActionInsert:
		row := model.NewMatrixEntry(matrixID, d.Entry, &actor)
		if err := s.repo.MatrixEntry.Create(ctx, row); err != nil {
			s.logger.Warn("failed to insert matrix entry", zap.String("date", o.Date), zap.Error(err))
			o.Kind, o.Reason = OutcomeFailed, "insert: "+err.Error()
			return o
		}
		o.Kind = OutcomeInserted
	case ActionUpdate:
		row := d.Existing
		row.Assign(d.Entry)
		row.UpdatedBy = &actor
		if err := s.repo.MatrixEntry.Update(ctx, row, d.Changed); err != nil {
			s.logger.Warn("failed to update matrix entry", zap.String("date", o.Date), zap.Error(err))
			o.Kind, o.Reason = OutcomeFailed, "update: "+err.Error()
			return o
		}
		o.Kind = OutcomeUpdated
	default:
		o.Kind = OutcomeUnchanged
	}
	return o
}

type importAuditDetails struct {
	FileName       string `json:"file_name"`
	Force          bool   `json:"force"`
	TotalExtracted int    `json:"total_extracted"`
	TotalInserted  int    `json:"total_inserted"`
	TotalUpdated   int    `json:"total_updated"`
	TotalUnchanged int    `json:"total_unchanged"`
	TotalFailed    int    `json:"total_failed"`
	ErrorCount     int    `json:"error_count"`
}

func (s *matrixImportService) recordAudit(ctx context.Context, cmd ImportCommand, matrix *model.Matrix, res *dto.ImportResult) error {
	details, err := json.Marshal(importAuditDetails{
		FileName:       cmd.FileName,
		Force:          cmd.Force,
		TotalExtracted: res.TotalExtracted,
		TotalInserted:  res.TotalInserted,
		TotalUpdated:   res.TotalUpdated,
		TotalUnchanged: res.TotalUnchanged,
		TotalFailed:    res.TotalFailed,
		ErrorCount:     len(res.Errors),
	})
	if err != nil {
		return err
	}
	return s.deps.Audit.Record(ctx, &model.AuditLog{
		TenantID:   matrix.TenantID,
		ActorID:    cmd.Caller.UserID,
		Action:     model.AuditActionMatrixImport,
		EntityType: "matrix",
		EntityID:   matrix.MatrixID,
		Details:    datatypes.JSON(details),
	})
}

// decisionErrors lists lookup failures of a dry-run plan.
func decisionErrors(plan *Plan) []string {
	var out []string
	for _, d := range plan.Decisions {
		if d.Err != nil {
			out = append(out, fmt.Sprintf("%s: %v", d.Entry.Key(), d.Err))
		}
	}
	return out
}
