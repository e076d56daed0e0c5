package pzk

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type MaterialVideoRepo interface {
	Create(dbc dbctx.Context, videos []*types.MaterialVideo) ([]*types.MaterialVideo, error)
	ListByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.MaterialVideo, error)
}

type materialVideoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialVideoRepo(db *gorm.DB, baseLog *logger.Logger) MaterialVideoRepo {
	repoLog := baseLog.With("repo", "MaterialVideoRepo")
	return &materialVideoRepo{db: db, log: repoLog}
}

func (vr *materialVideoRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return vr.db
}

func (vr *materialVideoRepo) Create(dbc dbctx.Context, videos []*types.MaterialVideo) ([]*types.MaterialVideo, error) {
	if len(videos) == 0 {
		return []*types.MaterialVideo{}, nil
	}
	if err := vr.handle(dbc).WithContext(dbc.Ctx).Create(&videos).Error; err != nil {
		vr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return videos, nil
}

func (vr *materialVideoRepo) ListByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.MaterialVideo, error) {
	var results []*types.MaterialVideo
	if err := vr.handle(dbc).WithContext(dbc.Ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		vr.log.Error("ListByMaterialID failed", "error", err)
		return nil, err
	}
	return results, nil
}
