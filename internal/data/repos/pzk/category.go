package pzk

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, categories []*types.PzkCategory) ([]*types.PzkCategory, error)
	GetByID(dbc dbctx.Context, categoryID uuid.UUID) (*types.PzkCategory, error)
	ListByModule(dbc dbctx.Context, module int) ([]*types.PzkCategory, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (cr *categoryRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return cr.db
}

func (cr *categoryRepo) Create(dbc dbctx.Context, categories []*types.PzkCategory) ([]*types.PzkCategory, error) {
	if len(categories) == 0 {
		return []*types.PzkCategory{}, nil
	}
	if err := cr.handle(dbc).WithContext(dbc.Ctx).Create(&categories).Error; err != nil {
		cr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return categories, nil
}

func (cr *categoryRepo) GetByID(dbc dbctx.Context, categoryID uuid.UUID) (*types.PzkCategory, error) {
	var result types.PzkCategory
	err := cr.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", categoryID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		cr.log.Error("GetByID failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (cr *categoryRepo) ListByModule(dbc dbctx.Context, module int) ([]*types.PzkCategory, error) {
	var results []*types.PzkCategory
	if err := cr.handle(dbc).WithContext(dbc.Ctx).
		Where("module = ?", module).
		Order("position ASC, name ASC").
		Find(&results).Error; err != nil {
		cr.log.Error("ListByModule failed", "error", err)
		return nil, err
	}
	return results, nil
}
