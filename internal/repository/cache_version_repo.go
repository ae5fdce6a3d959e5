package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"matriz-curricular/backend/internal/model"
)

// CacheVersionRepository durable per-tenant cache generation
type CacheVersionRepository interface {
	// Increment bumps the tenant's generation, creating the row on first use.
	Increment(ctx context.Context, tenantID string) (int64, error)
	Get(ctx context.Context, tenantID string) (int64, error)
}

type cacheVersionRepo struct {
	db *gorm.DB
}

func NewCacheVersionRepo(db *gorm.DB) CacheVersionRepository {
	return &cacheVersionRepo{db: db}
}

func (r *cacheVersionRepo) Increment(ctx context.Context, tenantID string) (int64, error) {
	row := model.TenantCacheVersion{TenantID: tenantID, Version: 1}
	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "tenant_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"version":    gorm.Expr("tenant_cache_versions.version + 1"),
					"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "version"}}},
		).
		Create(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Version, nil
}

func (r *cacheVersionRepo) Get(ctx context.Context, tenantID string) (int64, error) {
	var row model.TenantCacheVersion
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Version, nil
}
