package repository

import (
	"context"

	"gorm.io/gorm"

	"matriz-curricular/backend/internal/model"
	pkgerrors "matriz-curricular/backend/pkg/errors"
)

// MatrixRepository data access for curriculum matrices
type MatrixRepository interface {
	Create(ctx context.Context, matrix *model.Matrix) error
	GetByID(ctx context.Context, id string) (*model.Matrix, error)
	ListByTenant(ctx context.Context, tenantID string) ([]model.Matrix, error)
}

// MatrixEntryRepository data access for dated matrix entries
type MatrixEntryRepository interface {
	Create(ctx context.Context, entry *model.MatrixEntry) error
	GetByMatrixAndDate(ctx context.Context, matrixID, date string) (*model.MatrixEntry, error)
	ListByMatrix(ctx context.Context, matrixID string) ([]model.MatrixEntry, error)
	// Update writes the named columns of entry under its optimistic lock.
	Update(ctx context.Context, entry *model.MatrixEntry, columns []string) error
}

// ── Matrix Repository ──

type matrixRepo struct {
	db *gorm.DB
}

func NewMatrixRepo(db *gorm.DB) MatrixRepository {
	return &matrixRepo{db: db}
}

func (r *matrixRepo) Create(ctx context.Context, matrix *model.Matrix) error {
	return r.db.WithContext(ctx).Create(matrix).Error
}

func (r *matrixRepo) GetByID(ctx context.Context, id string) (*model.Matrix, error) {
	var matrix model.Matrix
	err := r.db.WithContext(ctx).
		Where("matrix_id = ?", id).
		First(&matrix).Error
	if err != nil {
		return nil, err
	}
	return &matrix, nil
}

func (r *matrixRepo) ListByTenant(ctx context.Context, tenantID string) ([]model.Matrix, error) {
	var matrices []model.Matrix
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("year DESC, segment ASC").
		Find(&matrices).Error
	return matrices, err
}

// ── MatrixEntry Repository ──

// entryColumns are the columns Update may touch.
var entryColumns = map[string]bool{
	"week_of_year":     true,
	"day_of_week":      true,
	"bimester":         true,
	"campo":            true,
	"objective_code":   true,
	"objective_text":   true,
	"curriculum_text":  true,
	"intentionality":   true,
	"example_activity": true,
}

type matrixEntryRepo struct {
	db *gorm.DB
}

func NewMatrixEntryRepo(db *gorm.DB) MatrixEntryRepository {
	return &matrixEntryRepo{db: db}
}

func (r *matrixEntryRepo) Create(ctx context.Context, entry *model.MatrixEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *matrixEntryRepo) GetByMatrixAndDate(ctx context.Context, matrixID, date string) (*model.MatrixEntry, error) {
	var entry model.MatrixEntry
	err := r.db.WithContext(ctx).
		Where("matrix_id = ? AND date = ?", matrixID, date).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *matrixEntryRepo) ListByMatrix(ctx context.Context, matrixID string) ([]model.MatrixEntry, error) {
	var entries []model.MatrixEntry
	err := r.db.WithContext(ctx).
		Where("matrix_id = ?", matrixID).
		Order("date ASC").
		Find(&entries).Error
	return entries, err
}

func (r *matrixEntryRepo) Update(ctx context.Context, entry *model.MatrixEntry, columns []string) error {
	values := map[string]interface{}{
		"week_of_year":     entry.WeekOfYear,
		"day_of_week":      entry.DayOfWeek,
		"bimester":         entry.Bimester,
		"campo":            entry.Campo,
		"objective_code":   entry.ObjectiveCode,
		"objective_text":   entry.ObjectiveText,
		"curriculum_text":  entry.CurriculumText,
		"intentionality":   entry.Intentionality,
		"example_activity": entry.ExampleActivity,
	}
	oldVersion := entry.Version
	updates := map[string]interface{}{
		"updated_by": entry.UpdatedBy,
		"version":    oldVersion + 1,
	}
	for _, c := range columns {
		if entryColumns[c] {
			updates[c] = values[c]
		}
	}

	result := r.db.WithContext(ctx).
		Model(entry).
		Where("entry_id = ? AND version = ?", entry.EntryID, oldVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version = oldVersion + 1
	return nil
}
