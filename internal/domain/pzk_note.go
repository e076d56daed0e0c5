package domain

import (
	"time"

	"github.com/google/uuid"
)

// PzkNote holds one free-text note per (user, material); writes are upserts.
type PzkNote struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uniq_note_user_material" json:"user_id"`
	User       *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	MaterialID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uniq_note_user_material" json:"material_id"`
	Material   *PzkMaterial `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialID;references:ID" json:"-"`
	Body       string       `gorm:"not null;column:body" json:"body"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PzkNote) TableName() string { return "pzk_note" }
