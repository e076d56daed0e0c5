package pzk

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type ModuleAccessRepo interface {
	Create(dbc dbctx.Context, grants []*types.ModuleAccess) ([]*types.ModuleAccess, error)
	// ListActiveByUserID returns grants with revoked_at IS NULL AND
	// start_at <= now < expires_at, ordered by module ascending. Multiple
	// rows per module are preserved.
	ListActiveByUserID(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.ModuleAccess, error)
	HasActiveForModule(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time) (bool, error)
	HasAnyActive(dbc dbctx.Context, userID uuid.UUID, now time.Time) (bool, error)
	Revoke(dbc dbctx.Context, grantID uuid.UUID, now time.Time) (bool, error)
}

type moduleAccessRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleAccessRepo(db *gorm.DB, baseLog *logger.Logger) ModuleAccessRepo {
	repoLog := baseLog.With("repo", "ModuleAccessRepo")
	return &moduleAccessRepo{db: db, log: repoLog}
}

func (mr *moduleAccessRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return mr.db
}

func (mr *moduleAccessRepo) Create(dbc dbctx.Context, grants []*types.ModuleAccess) ([]*types.ModuleAccess, error) {
	if len(grants) == 0 {
		return []*types.ModuleAccess{}, nil
	}
	if err := mr.handle(dbc).WithContext(dbc.Ctx).Create(&grants).Error; err != nil {
		mr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return grants, nil
}

func (mr *moduleAccessRepo) ListActiveByUserID(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.ModuleAccess, error) {
	var results []*types.ModuleAccess
	if err := mr.handle(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND revoked_at IS NULL AND start_at <= ? AND expires_at > ?", userID, now, now).
		Order("module ASC, start_at ASC").
		Find(&results).Error; err != nil {
		mr.log.Error("ListActiveByUserID failed", "error", err)
		return nil, err
	}
	return results, nil
}

func (mr *moduleAccessRepo) HasActiveForModule(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time) (bool, error) {
	var count int64
	if err := mr.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.ModuleAccess{}).
		Where("user_id = ? AND module = ? AND revoked_at IS NULL AND start_at <= ? AND expires_at > ?", userID, module, now, now).
		Count(&count).Error; err != nil {
		mr.log.Error("HasActiveForModule failed", "error", err)
		return false, err
	}
	return count > 0, nil
}

func (mr *moduleAccessRepo) HasAnyActive(dbc dbctx.Context, userID uuid.UUID, now time.Time) (bool, error) {
	var count int64
	if err := mr.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.ModuleAccess{}).
		Where("user_id = ? AND revoked_at IS NULL AND start_at <= ? AND expires_at > ?", userID, now, now).
		Count(&count).Error; err != nil {
		mr.log.Error("HasAnyActive failed", "error", err)
		return false, err
	}
	return count > 0, nil
}

func (mr *moduleAccessRepo) Revoke(dbc dbctx.Context, grantID uuid.UUID, now time.Time) (bool, error) {
	res := mr.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.ModuleAccess{}).
		Where("id = ? AND revoked_at IS NULL", grantID).
		Update("revoked_at", now)
	if res.Error != nil {
		mr.log.Error("Revoke failed", "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
