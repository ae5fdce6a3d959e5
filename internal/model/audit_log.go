package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions written by the import pipeline.
const (
	AuditActionMatrixImport = "matrix.import.apply"
)

// AuditLog append-only audit trail, maps to audit_logs
type AuditLog struct {
	AuditID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_id"`
	TenantID   string         `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	ActorID    string         `gorm:"type:uuid;not null"                             json:"actor_id"`
	Action     string         `gorm:"type:varchar(60);not null"                      json:"action"`
	EntityType string         `gorm:"type:varchar(40);not null"                      json:"entity_type"`
	EntityID   string         `gorm:"type:uuid;not null"                             json:"entity_id"`
	Details    datatypes.JSON `gorm:"type:jsonb"                                     json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
