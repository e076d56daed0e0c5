package weight

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type EntryRepo interface {
	Create(dbc dbctx.Context, entries []*types.WeightEntry) ([]*types.WeightEntry, error)
	GetByID(dbc dbctx.Context, entryID uuid.UUID) (*types.WeightEntry, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.WeightEntry, error)
	Update(dbc dbctx.Context, entry *types.WeightEntry) error
	Delete(dbc dbctx.Context, entryID uuid.UUID) error
}

type entryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntryRepo(db *gorm.DB, baseLog *logger.Logger) EntryRepo {
	repoLog := baseLog.With("repo", "WeightEntryRepo")
	return &entryRepo{db: db, log: repoLog}
}

func (er *entryRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return er.db
}

func (er *entryRepo) Create(dbc dbctx.Context, entries []*types.WeightEntry) ([]*types.WeightEntry, error) {
	if len(entries) == 0 {
		return []*types.WeightEntry{}, nil
	}
	if err := er.handle(dbc).WithContext(dbc.Ctx).Create(&entries).Error; err != nil {
		er.log.Error("Create failed", "error", err)
		return nil, err
	}
	return entries, nil
}

func (er *entryRepo) GetByID(dbc dbctx.Context, entryID uuid.UUID) (*types.WeightEntry, error) {
	var result types.WeightEntry
	err := er.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", entryID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		er.log.Error("GetByID failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (er *entryRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.WeightEntry, error) {
	var results []*types.WeightEntry
	if err := er.handle(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("measured_on DESC, created_at DESC").
		Find(&results).Error; err != nil {
		er.log.Error("ListByUserID failed", "error", err)
		return nil, err
	}
	return results, nil
}

func (er *entryRepo) Update(dbc dbctx.Context, entry *types.WeightEntry) error {
	if err := er.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.WeightEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"measured_on":  entry.MeasuredOn,
			"weight_grams": entry.WeightGrams,
			"note":         entry.Note,
		}).Error; err != nil {
		er.log.Error("Update failed", "error", err)
		return err
	}
	return nil
}

func (er *entryRepo) Delete(dbc dbctx.Context, entryID uuid.UUID) error {
	if err := er.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", entryID).
		Delete(&types.WeightEntry{}).Error; err != nil {
		er.log.Error("Delete failed", "error", err)
		return err
	}
	return nil
}
