package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaterialStatusDraft       = "draft"
	MaterialStatusPublishSoon = "publish_soon"
	MaterialStatusPublished   = "published"
	MaterialStatusArchived    = "archived"
)

const (
	ModuleMin = 1
	ModuleMax = 3
)

type PzkCategory struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Module   int       `gorm:"not null;index;column:module" json:"module"`
	Name     string    `gorm:"not null;column:name" json:"name"`
	Position int       `gorm:"not null;default:0;column:position" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PzkCategory) TableName() string { return "pzk_category" }

type PzkMaterial struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Module      int          `gorm:"not null;index;column:module" json:"module"`
	CategoryID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *PzkCategory `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Title       string       `gorm:"not null;column:title" json:"title"`
	Summary     string       `gorm:"column:summary" json:"summary"`
	Status      string       `gorm:"not null;default:'draft';index;column:status" json:"status"`
	PublishedAt *time.Time   `gorm:"column:published_at" json:"published_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PzkMaterial) TableName() string { return "pzk_material" }

// MaterialPdf carries the storage object key. The key stays server-side:
// clients only ever see a short-lived signed URL.
type MaterialPdf struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"material_id"`
	Material    *PzkMaterial `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialID;references:ID" json:"-"`
	DisplayName string       `gorm:"not null;column:display_name" json:"display_name"`
	ObjectKey   string       `gorm:"not null;column:object_key" json:"-"`
	SizeBytes   int64        `gorm:"column:size_bytes" json:"size_bytes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MaterialPdf) TableName() string { return "material_pdf" }

type MaterialVideo struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"material_id"`
	Material        *PzkMaterial `gorm:"constraint:OnDelete:CASCADE;foreignKey:MaterialID;references:ID" json:"-"`
	Title           string       `gorm:"not null;column:title" json:"title"`
	ProviderVideoID string       `gorm:"not null;column:provider_video_id" json:"provider_video_id"`
	DurationSeconds int          `gorm:"column:duration_seconds" json:"duration_seconds"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MaterialVideo) TableName() string { return "material_video" }
