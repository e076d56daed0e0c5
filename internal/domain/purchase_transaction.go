package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// PurchaseTransaction correlates a provider payment with a module purchase.
// ID doubles as the tr_crc sent to the provider; status transitions
// pending -> success|failed exactly once via a guarded update.
type PurchaseTransaction struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User                  *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Module                int        `gorm:"not null;column:module" json:"module"`
	AmountGrosz           int64      `gorm:"not null;column:amount_grosz" json:"amount_grosz"`
	ProviderTransactionID string     `gorm:"index;column:provider_transaction_id" json:"provider_transaction_id,omitempty"`
	Status                string     `gorm:"not null;default:'pending';index;column:status" json:"status"`
	ProcessedAt           *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PurchaseTransaction) TableName() string { return "purchase_transaction" }
