package service

import (
	"fmt"

	"go.uber.org/zap"

	"matriz-curricular/backend/config"
	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/internal/extract"
	"matriz-curricular/backend/internal/repository"
	"matriz-curricular/backend/pkg/redis"
)

// Service aggregates every use-case service.
type Service struct {
	MatrixImport MatrixImportService
	Matrix       MatrixService
	Roles        []string
}

// NewService wires the services from configuration. rdb may be nil; the
// lock, the version mirror and the entry cache then degrade to no-ops.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) (*Service, error) {
	loc, err := cfg.Import.Location()
	if err != nil {
		return nil, err
	}
	authority, err := authz.NewRoleAuthority(cfg.Authz.Roles)
	if err != nil {
		return nil, fmt.Errorf("authz roles: %w", err)
	}

	versions := NewCacheVersions(repo.CacheVersion, rdb, logger)
	var cache JSONCache
	if rdb != nil {
		cache = rdb
	}

	extractor := extract.New(extract.Config{
		Pdftotext: cfg.Import.Pdftotext,
		MaxBytes:  cfg.Import.MaxUploadBytes,
	}, logger)

	return &Service{
		MatrixImport: NewMatrixImportService(repo, ImportCollaborators{
			Authority: authority,
			Extractor: extractor,
			Audit:     NewAuditSink(repo.AuditLog),
			Versions:  versions,
			Locker:    NewImportLocker(rdb, cfg.Import.LockTTL, logger),
		}, ImportOptions{
			Location:      loc,
			MinTextLength: cfg.Import.MinTextLength,
			PreviewLimit:  cfg.Import.PreviewLimit,
		}, logger),
		Matrix: NewMatrixService(repo, authority, versions, cache, cfg.Import.CacheTTL, logger),
		Roles:  authority.Roles(),
	}, nil
}
