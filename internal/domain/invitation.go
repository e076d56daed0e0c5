package domain

import (
	"time"

	"github.com/google/uuid"
)

// Invitation is a single-use signup grant issued by a dietitian. UsedAt flips
// exactly once via a conditional update, so racing signups cannot both consume
// the same invitation.
type Invitation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string     `gorm:"not null;index;column:email" json:"email"`
	TokenHash   string     `gorm:"uniqueIndex;not null;column:token_hash" json:"-"`
	InvitedByID uuid.UUID  `gorm:"type:uuid;not null;column:invited_by_id" json:"invited_by_id"`
	InvitedBy   *User      `gorm:"foreignKey:InvitedByID;references:ID" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null;column:expires_at" json:"expires_at"`
	UsedAt      *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Invitation) TableName() string { return "invitation" }
