package domain

import (
	"time"

	"github.com/google/uuid"
)

type PzkReview struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Rating int       `gorm:"not null;column:rating" json:"rating"`
	Body   string    `gorm:"not null;column:body" json:"body"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (PzkReview) TableName() string { return "pzk_review" }
