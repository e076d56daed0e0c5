package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeightEntry stores weight in grams to avoid float drift. MeasuredOn is a
// civil date rendered as YYYY-MM-DD; the edit window is computed from it.
type WeightEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_weight_user_date" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	MeasuredOn  string    `gorm:"not null;index:idx_weight_user_date;column:measured_on" json:"measured_on"`
	WeightGrams int       `gorm:"not null;column:weight_grams" json:"weight_grams"`
	Note        string    `gorm:"column:note" json:"note,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WeightEntry) TableName() string { return "weight_entry" }
