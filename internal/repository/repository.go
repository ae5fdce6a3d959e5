package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository over one *gorm.DB.
type Repository struct {
	db *gorm.DB

	Matrix       MatrixRepository
	MatrixEntry  MatrixEntryRepository
	AuditLog     AuditLogRepository
	CacheVersion CacheVersionRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Matrix:       NewMatrixRepo(db),
		MatrixEntry:  NewMatrixEntryRepo(db),
		AuditLog:     NewAuditLogRepo(db),
		CacheVersion: NewCacheVersionRepo(db),
	}
}

// BeginTx opens a transaction; the caller commits or rolls back.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns a Repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}
