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

type SessionRepo interface {
	Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error)
	GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.Session, error)
	DeleteByTokenHash(dbc dbctx.Context, tokenHash string) error
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (sr *sessionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return sr.db
}

func (sr *sessionRepo) Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error) {
	if len(sessions) == 0 {
		return []*types.Session{}, nil
	}
	if err := sr.handle(dbc).WithContext(dbc.Ctx).Create(&sessions).Error; err != nil {
		sr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return sessions, nil
}

func (sr *sessionRepo) GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.Session, error) {
	var result types.Session
	err := sr.handle(dbc).WithContext(dbc.Ctx).
		Where("token_hash = ?", tokenHash).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		sr.log.Error("GetByTokenHash failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (sr *sessionRepo) DeleteByTokenHash(dbc dbctx.Context, tokenHash string) error {
	if err := sr.handle(dbc).WithContext(dbc.Ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&types.Session{}).Error; err != nil {
		sr.log.Error("DeleteByTokenHash failed", "error", err)
		return err
	}
	return nil
}

func (sr *sessionRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	if err := sr.handle(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.Session{}).Error; err != nil {
		sr.log.Error("DeleteByUserID failed", "error", err)
		return err
	}
	return nil
}

func (sr *sessionRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := sr.handle(dbc).WithContext(dbc.Ctx).
		Where("expires_at <= ?", now).
		Delete(&types.Session{})
	if res.Error != nil {
		sr.log.Error("DeleteExpired failed", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
