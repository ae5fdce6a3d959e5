package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/internal/curriculum"
	"matriz-curricular/backend/internal/dto"
	"matriz-curricular/backend/internal/model"
	"matriz-curricular/backend/internal/repository"
)

var ErrMatrixReadForbidden = errors.New("caller is not allowed to read this matrix")

// MatrixService read side of curriculum matrices
type MatrixService interface {
	Get(ctx context.Context, caller authz.Caller, id string) (*dto.MatrixResponse, error)
	// ListEntries filters and pages the matrix entries, served from the
	// tenant-versioned cache when available.
	ListEntries(ctx context.Context, caller authz.Caller, id string, req *dto.ListEntriesRequest) (*dto.EntryPage, error)
	// Export renders every entry to an .xlsx workbook.
	Export(ctx context.Context, caller authz.Caller, id string) ([]byte, string, error)
	// Calendar renders every entry as an all-day iCalendar event.
	Calendar(ctx context.Context, caller authz.Caller, id string) ([]byte, string, error)
	// PreviewWorkbook renders an import result's preview to .xlsx.
	PreviewWorkbook(res *dto.ImportResult) ([]byte, string, error)
}

type matrixService struct {
	repo      *repository.Repository
	authority Authority
	versions  CacheVersionSource
	cache     JSONCache // nil disables caching
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewMatrixService(
	repo *repository.Repository,
	authority Authority,
	versions CacheVersionSource,
	cache JSONCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) MatrixService {
	return &matrixService{
		repo:      repo,
		authority: authority,
		versions:  versions,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func (s *matrixService) Get(ctx context.Context, caller authz.Caller, id string) (*dto.MatrixResponse, error) {
	matrix, err := s.authorizedMatrix(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, matrix)
	if err != nil {
		return nil, err
	}
	return &dto.MatrixResponse{
		ID:         matrix.MatrixID,
		TenantID:   matrix.TenantID,
		Name:       matrix.Name,
		Year:       matrix.Year,
		Segment:    matrix.Segment,
		Revision:   matrix.Revision,
		IsActive:   matrix.IsActive,
		EntryCount: len(entries),
		CreatedAt:  matrix.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  matrix.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func (s *matrixService) ListEntries(ctx context.Context, caller authz.Caller, id string, req *dto.ListEntriesRequest) (*dto.EntryPage, error) {
	matrix, err := s.authorizedMatrix(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	all, err := s.entries(ctx, matrix)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	filtered := make([]dto.MatrixEntryResponse, 0, len(all))
	for _, e := range all {
		if req.From != "" && e.Date < req.From {
			continue
		}
		if req.To != "" && e.Date > req.To {
			continue
		}
		if req.Campo != "" && e.Campo != req.Campo {
			continue
		}
		filtered = append(filtered, e)
	}

	start := min((req.Page-1)*req.PageSize, len(filtered))
	end := min(start+req.PageSize, len(filtered))
	return &dto.EntryPage{Entries: filtered[start:end], Total: int64(len(filtered))}, nil
}

// ── Helpers ──

func (s *matrixService) authorizedMatrix(ctx context.Context, caller authz.Caller, id string) (*model.Matrix, error) {
	ok, err := s.authority.Allow(ctx, caller, authz.PermMatrixRead)
	if err != nil {
		return nil, fmt.Errorf("authorize read: %w", err)
	}
	if !ok {
		return nil, ErrMatrixReadForbidden
	}
	matrix, err := s.repo.Matrix.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatrixNotFound
		}
		s.logger.Error("failed to load matrix", zap.String("matrix_id", id), zap.Error(err))
		return nil, err
	}
	return matrix, nil
}

// entries returns every entry of the matrix, ordered by date. The cache key
// embeds the tenant cache generation, so an applied import that bumps the
// generation makes older cached lists unreachable.
func (s *matrixService) entries(ctx context.Context, matrix *model.Matrix) ([]dto.MatrixEntryResponse, error) {
	var key string
	if s.cache != nil {
		version, err := s.versions.Current(ctx, matrix.TenantID)
		if err != nil {
			s.logger.Warn("failed to read cache version, bypassing cache", zap.Error(err))
		} else {
			key = fmt.Sprintf("matrix:entries:%s:v%d:%s", matrix.TenantID, version, matrix.MatrixID)
			var cached []dto.MatrixEntryResponse
			hit, err := s.cache.GetJSON(ctx, key, &cached)
			if err != nil {
				s.logger.Warn("entry cache read failed", zap.String("key", key), zap.Error(err))
			}
			if hit {
				return cached, nil
			}
		}
	}

	rows, err := s.repo.MatrixEntry.ListByMatrix(ctx, matrix.MatrixID)
	if err != nil {
		s.logger.Error("failed to list matrix entries", zap.String("matrix_id", matrix.MatrixID), zap.Error(err))
		return nil, err
	}
	out := make([]dto.MatrixEntryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toEntryResponse(&rows[i]))
	}

	if key != "" {
		if err := s.cache.SetJSON(ctx, key, out, s.cacheTTL); err != nil {
			s.logger.Warn("entry cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

func toEntryResponse(e *model.MatrixEntry) dto.MatrixEntryResponse {
	return dto.MatrixEntryResponse{
		ID:              e.EntryID,
		Date:            e.DateKey(),
		WeekOfYear:      e.WeekOfYear,
		DayOfWeek:       e.DayOfWeek,
		Bimester:        e.Bimester,
		Campo:           e.Campo,
		CampoLabel:      curriculum.Campo(e.Campo).Label(),
		ObjectiveCode:   e.ObjectiveCode,
		ObjectiveText:   e.ObjectiveText,
		CurriculumText:  e.CurriculumText,
		Intentionality:  e.Intentionality,
		ExampleActivity: e.ExampleActivity,
		Version:         e.Version,
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
}
