package model

import "time"

// TenantCacheVersion monotonically increasing cache generation per tenant,
// maps to tenant_cache_versions. Readers embed the value in cache keys, so a
// bump makes every earlier cached read unreachable.
type TenantCacheVersion struct {
	TenantID  string    `gorm:"type:uuid;primaryKey"                json:"tenant_id"`
	Version   int64     `gorm:"not null;default:0"                  json:"version"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TenantCacheVersion) TableName() string { return "tenant_cache_versions" }
