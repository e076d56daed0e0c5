package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEvent rows are best-effort: emission failures are logged and dropped,
// never surfaced to the operation that triggered them.
type AuditEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	Action     string         `gorm:"not null;index;column:action" json:"action"`
	MaterialID *uuid.UUID     `gorm:"type:uuid;column:material_id" json:"material_id,omitempty"`
	PdfID      *uuid.UUID     `gorm:"type:uuid;column:pdf_id" json:"pdf_id,omitempty"`
	Reason     string         `gorm:"column:reason" json:"reason,omitempty"`
	Details    datatypes.JSON `gorm:"column:details" json:"details,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_event" }
