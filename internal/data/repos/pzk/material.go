package pzk

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type MaterialRepo interface {
	Create(dbc dbctx.Context, materials []*types.PzkMaterial) ([]*types.PzkMaterial, error)
	GetByID(dbc dbctx.Context, materialID uuid.UUID) (*types.PzkMaterial, error)
	// GetByIDWithCategory joins the category; reserved for the unlocked
	// read path so locked variants never carry category metadata.
	GetByIDWithCategory(dbc dbctx.Context, materialID uuid.UUID) (*types.PzkMaterial, error)
	ListByModuleAndStatuses(dbc dbctx.Context, module int, statuses []string) ([]*types.PzkMaterial, error)
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	repoLog := baseLog.With("repo", "MaterialRepo")
	return &materialRepo{db: db, log: repoLog}
}

func (mr *materialRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return mr.db
}

func (mr *materialRepo) Create(dbc dbctx.Context, materials []*types.PzkMaterial) ([]*types.PzkMaterial, error) {
	if len(materials) == 0 {
		return []*types.PzkMaterial{}, nil
	}
	if err := mr.handle(dbc).WithContext(dbc.Ctx).Create(&materials).Error; err != nil {
		mr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return materials, nil
}

func (mr *materialRepo) GetByID(dbc dbctx.Context, materialID uuid.UUID) (*types.PzkMaterial, error) {
	var result types.PzkMaterial
	err := mr.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", materialID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		mr.log.Error("GetByID failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (mr *materialRepo) GetByIDWithCategory(dbc dbctx.Context, materialID uuid.UUID) (*types.PzkMaterial, error) {
	var result types.PzkMaterial
	err := mr.handle(dbc).WithContext(dbc.Ctx).
		Preload("Category").
		Where("id = ?", materialID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		mr.log.Error("GetByIDWithCategory failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (mr *materialRepo) ListByModuleAndStatuses(dbc dbctx.Context, module int, statuses []string) ([]*types.PzkMaterial, error) {
	var results []*types.PzkMaterial
	if len(statuses) == 0 {
		return results, nil
	}
	if err := mr.handle(dbc).WithContext(dbc.Ctx).
		Where("module = ? AND status IN ?", module, statuses).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		mr.log.Error("ListByModuleAndStatuses failed", "error", err)
		return nil, err
	}
	return results, nil
}
