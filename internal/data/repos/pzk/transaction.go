package pzk

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type TransactionRepo interface {
	Create(dbc dbctx.Context, transactions []*types.PurchaseTransaction) ([]*types.PurchaseTransaction, error)
	GetByID(dbc dbctx.Context, transactionID uuid.UUID) (*types.PurchaseTransaction, error)
	// MarkProcessed transitions pending -> status. The update is guarded on
	// status = 'pending', so a replayed webhook affects zero rows and the
	// first terminal state sticks.
	MarkProcessed(dbc dbctx.Context, transactionID uuid.UUID, status, providerTransactionID string, now time.Time) (bool, error)
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	repoLog := baseLog.With("repo", "TransactionRepo")
	return &transactionRepo{db: db, log: repoLog}
}

func (tr *transactionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return tr.db
}

func (tr *transactionRepo) Create(dbc dbctx.Context, transactions []*types.PurchaseTransaction) ([]*types.PurchaseTransaction, error) {
	if len(transactions) == 0 {
		return []*types.PurchaseTransaction{}, nil
	}
	if err := tr.handle(dbc).WithContext(dbc.Ctx).Create(&transactions).Error; err != nil {
		tr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return transactions, nil
}

func (tr *transactionRepo) GetByID(dbc dbctx.Context, transactionID uuid.UUID) (*types.PurchaseTransaction, error) {
	var result types.PurchaseTransaction
	err := tr.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", transactionID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		tr.log.Error("GetByID failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (tr *transactionRepo) MarkProcessed(dbc dbctx.Context, transactionID uuid.UUID, status, providerTransactionID string, now time.Time) (bool, error) {
	res := tr.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.PurchaseTransaction{}).
		Where("id = ? AND status = ?", transactionID, types.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":                  status,
			"provider_transaction_id": providerTransactionID,
			"processed_at":            now,
		})
	if res.Error != nil {
		tr.log.Error("MarkProcessed failed", "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
