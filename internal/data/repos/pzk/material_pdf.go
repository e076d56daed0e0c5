package pzk

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type MaterialPdfRepo interface {
	Create(dbc dbctx.Context, pdfs []*types.MaterialPdf) ([]*types.MaterialPdf, error)
	// GetByMaterialIDAndPdfID looks up by the composite key. A pdf id that
	// exists under a different material resolves to nil, so a stolen id
	// can never cross material boundaries.
	GetByMaterialIDAndPdfID(dbc dbctx.Context, materialID, pdfID uuid.UUID) (*types.MaterialPdf, error)
	ListByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.MaterialPdf, error)
}

type materialPdfRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialPdfRepo(db *gorm.DB, baseLog *logger.Logger) MaterialPdfRepo {
	repoLog := baseLog.With("repo", "MaterialPdfRepo")
	return &materialPdfRepo{db: db, log: repoLog}
}

func (pr *materialPdfRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return pr.db
}

func (pr *materialPdfRepo) Create(dbc dbctx.Context, pdfs []*types.MaterialPdf) ([]*types.MaterialPdf, error) {
	if len(pdfs) == 0 {
		return []*types.MaterialPdf{}, nil
	}
	if err := pr.handle(dbc).WithContext(dbc.Ctx).Create(&pdfs).Error; err != nil {
		pr.log.Error("Create failed", "error", err)
		return nil, err
	}
	return pdfs, nil
}

func (pr *materialPdfRepo) GetByMaterialIDAndPdfID(dbc dbctx.Context, materialID, pdfID uuid.UUID) (*types.MaterialPdf, error) {
	var result types.MaterialPdf
	err := pr.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ? AND material_id = ?", pdfID, materialID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		pr.log.Error("GetByMaterialIDAndPdfID failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (pr *materialPdfRepo) ListByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.MaterialPdf, error) {
	var results []*types.MaterialPdf
	if err := pr.handle(dbc).WithContext(dbc.Ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		pr.log.Error("ListByMaterialID failed", "error", err)
		return nil, err
	}
	return results, nil
}
