package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type PasswordResetRepo interface {
	Create(dbc dbctx.Context, resets []*types.PasswordReset) ([]*types.PasswordReset, error)
	GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.PasswordReset, error)
	// Consume is a single conditional update ("mark used where not already
	// used"); two devices racing the same token resolve at the data layer.
	Consume(dbc dbctx.Context, tokenHash string, now time.Time) (bool, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
}

type passwordResetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPasswordResetRepo(db *gorm.DB, baseLog *logger.Logger) PasswordResetRepo {
	repoLog := baseLog.With("repo", "PasswordResetRepo")
	return &passwordResetRepo{db: db, log: repoLog}
}

func (pr *passwordResetRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return pr.db
}

func (pr *passwordResetRepo) Create(dbc dbctx.Context, resets []*types.PasswordReset) ([]*types.PasswordReset, error) {
	if len(resets) == 0 {
		return []*types.PasswordReset{}, nil
	}
	if err := pr.handle(dbc).WithContext(dbc.Ctx).Create(&resets).Error; err != nil {
		pr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return resets, nil
}

func (pr *passwordResetRepo) GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.PasswordReset, error) {
	var result types.PasswordReset
	err := pr.handle(dbc).WithContext(dbc.Ctx).
		Where("token_hash = ?", tokenHash).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		pr.log.Error("GetByTokenHash failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (pr *passwordResetRepo) Consume(dbc dbctx.Context, tokenHash string, now time.Time) (bool, error) {
	res := pr.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.PasswordReset{}).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("used_at", now)
	if res.Error != nil {
		pr.log.Error("Consume failed", "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (pr *passwordResetRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	if err := pr.handle(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.PasswordReset{}).Error; err != nil {
		pr.log.Error("DeleteByUserID failed", "error", err)
		return err
	}
	return nil
}
