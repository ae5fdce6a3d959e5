package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/internal/model"
	"matriz-curricular/backend/internal/repository"
	"matriz-curricular/backend/pkg/redis"
)

// ── Collaborator contracts ──────────────────────────────────
//
// The import pipeline only depends on these interfaces; the concrete
// adapters below back them with the repositories and Redis.
// ─────────────────────────────────────────────────────────────

// Authority decides whether a caller holds every listed permission.
type Authority interface {
	Allow(ctx context.Context, caller authz.Caller, perms ...authz.Permission) (bool, error)
}

// AuditSink appends one audit record.
type AuditSink interface {
	Record(ctx context.Context, log *model.AuditLog) error
}

// CacheVersionBumper increments the tenant's cache generation.
type CacheVersionBumper interface {
	Bump(ctx context.Context, tenantID string) (int64, error)
}

// CacheVersionSource reads the tenant's current cache generation.
type CacheVersionSource interface {
	Current(ctx context.Context, tenantID string) (int64, error)
}

// ImportLocker serializes imports of the same matrix.
type ImportLocker interface {
	Lock(ctx context.Context, matrixID string) (unlock func(), err error)
}

// JSONCache is the read cache used for entry listings.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// ── Audit sink ──

type repoAuditSink struct {
	logs repository.AuditLogRepository
}

// NewAuditSink writes audit records through the audit log repository.
func NewAuditSink(logs repository.AuditLogRepository) AuditSink {
	return &repoAuditSink{logs: logs}
}

func (s *repoAuditSink) Record(ctx context.Context, log *model.AuditLog) error {
	return s.logs.Create(ctx, log)
}

// ── Cache versions ──

const cacheVersionPrefix = "cache:version:"

// CacheVersions keeps the tenant generation in PostgreSQL and mirrors it
// into Redis so readers avoid a database round trip. A nil Redis client
// reads and writes the database only.
type CacheVersions struct {
	repo   repository.CacheVersionRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewCacheVersions(repo repository.CacheVersionRepository, rdb *redis.Client, logger *zap.Logger) *CacheVersions {
	return &CacheVersions{repo: repo, rdb: rdb, logger: logger}
}

func (c *CacheVersions) Bump(ctx context.Context, tenantID string) (int64, error) {
	v, err := c.repo.Increment(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("increment cache version: %w", err)
	}
	if c.rdb != nil {
		if _, err := c.rdb.RaiseVersion(ctx, cacheVersionPrefix+tenantID, v); err != nil {
			// readers fall back to the database when the mirror is stale or absent
			c.logger.Warn("failed to mirror cache version", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	return v, nil
}

func (c *CacheVersions) Current(ctx context.Context, tenantID string) (int64, error) {
	if c.rdb != nil {
		v, ok, err := c.rdb.GetVersion(ctx, cacheVersionPrefix+tenantID)
		if err == nil && ok {
			return v, nil
		}
		if err != nil {
			c.logger.Warn("failed to read cache version from redis", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	return c.repo.Get(ctx, tenantID)
}

// ── Import lock ──

const importLockPrefix = "lock:matrix-import:"

type redisImportLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewImportLocker returns a Redis SET NX lock per matrix. Without Redis the
// lock is a no-op and the (matrix_id, date) unique index is the only guard.
func NewImportLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) ImportLocker {
	return &redisImportLocker{rdb: rdb, ttl: ttl, logger: logger}
}

func (l *redisImportLocker) Lock(ctx context.Context, matrixID string) (func(), error) {
	if l.rdb == nil {
		return func() {}, nil
	}
	key := importLockPrefix + matrixID
	token, err := l.rdb.AcquireLock(ctx, key, l.ttl)
	if err != nil {
		l.logger.Warn("import lock unavailable, continuing without it", zap.String("matrix_id", matrixID), zap.Error(err))
		return func() {}, nil
	}
	if token == "" {
		return nil, ErrImportInProgress
	}
	return func() {
		// released on a fresh context so a cancelled request still frees the key
		relCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := l.rdb.ReleaseLock(relCtx, key, token); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Warn("failed to release import lock", zap.String("matrix_id", matrixID), zap.Error(err))
		}
	}, nil
}
