package domain

import (
	"time"

	"github.com/google/uuid"
)

// ModuleAccess is an append-only entitlement grant. A user may hold several
// rows per module; the active set is derivable from rows and now alone:
// revoked_at IS NULL AND start_at <= now < expires_at.
type ModuleAccess struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;index:idx_access_user_module" json:"user_id"`
	User                *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Module              int        `gorm:"not null;index:idx_access_user_module;column:module" json:"module"`
	StartAt             time.Time  `gorm:"not null;column:start_at" json:"start_at"`
	ExpiresAt           time.Time  `gorm:"not null;column:expires_at" json:"expires_at"`
	RevokedAt           *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	SourceTransactionID *uuid.UUID `gorm:"type:uuid;column:source_transaction_id" json:"source_transaction_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ModuleAccess) TableName() string { return "module_access" }

func (a *ModuleAccess) ActiveAt(now time.Time) bool {
	if a == nil || a.RevokedAt != nil {
		return false
	}
	return !a.StartAt.After(now) && now.Before(a.ExpiresAt)
}
