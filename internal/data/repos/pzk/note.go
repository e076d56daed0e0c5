package pzk

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type NoteRepo interface {
	// Upsert inserts or replaces the body of the single note a user holds
	// per material.
	Upsert(dbc dbctx.Context, note *types.PzkNote) (*types.PzkNote, error)
	GetByUserAndMaterial(dbc dbctx.Context, userID, materialID uuid.UUID) (*types.PzkNote, error)
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	repoLog := baseLog.With("repo", "NoteRepo")
	return &noteRepo{db: db, log: repoLog}
}

func (nr *noteRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return nr.db
}

func (nr *noteRepo) Upsert(dbc dbctx.Context, note *types.PzkNote) (*types.PzkNote, error) {
	if err := nr.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "material_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(note).Error; err != nil {
		nr.log.Error("Upsert failed", "error", err)
		return nil, err
	}
	return nr.GetByUserAndMaterial(dbc, note.UserID, note.MaterialID)
}

func (nr *noteRepo) GetByUserAndMaterial(dbc dbctx.Context, userID, materialID uuid.UUID) (*types.PzkNote, error) {
	var result types.PzkNote
	err := nr.handle(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		nr.log.Error("GetByUserAndMaterial failed", "error", err)
		return nil, err
	}
	return &result, nil
}
