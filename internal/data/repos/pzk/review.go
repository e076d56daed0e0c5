package pzk

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

const (
	ReviewSortCreatedAtDesc = "createdAtDesc"
	ReviewSortUpdatedAtDesc = "updatedAtDesc"
)

// ReviewKey is the keyset position of a row under a fixed sort order. It is
// what an opaque page cursor decodes to.
type ReviewKey struct {
	At time.Time
	ID uuid.UUID
}

type ReviewRepo interface {
	Upsert(dbc dbctx.Context, review *types.PzkReview) (*types.PzkReview, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.PzkReview, error)
	// ListPage returns up to limit reviews strictly after the key under the
	// given sort order. A nil key starts from the top. The (timestamp, id)
	// tuple totally orders rows, so pages never overlap or skip.
	ListPage(dbc dbctx.Context, sort string, after *ReviewKey, limit int) ([]*types.PzkReview, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	repoLog := baseLog.With("repo", "ReviewRepo")
	return &reviewRepo{db: db, log: repoLog}
}

func (rr *reviewRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return rr.db
}

func (rr *reviewRepo) Upsert(dbc dbctx.Context, review *types.PzkReview) (*types.PzkReview, error) {
	if err := rr.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "body", "updated_at"}),
		}).
		Create(review).Error; err != nil {
		rr.log.Error("Upsert failed", "error", err)
		return nil, err
	}
	return rr.GetByUserID(dbc, review.UserID)
}

func (rr *reviewRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.PzkReview, error) {
	var result types.PzkReview
	err := rr.handle(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		rr.log.Error("GetByUserID failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (rr *reviewRepo) ListPage(dbc dbctx.Context, sort string, after *ReviewKey, limit int) ([]*types.PzkReview, error) {
	col := "created_at"
	if sort == ReviewSortUpdatedAtDesc {
		col = "updated_at"
	}

	q := rr.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.PzkReview{}).
		Order(col + " DESC, id DESC").
		Limit(limit)

	if after != nil {
		q = q.Where(col+" < ? OR ("+col+" = ? AND id < ?)", after.At, after.At, after.ID)
	}

	var results []*types.PzkReview
	if err := q.Find(&results).Error; err != nil {
		rr.log.Error("ListPage failed", "error", err)
		return nil, err
	}
	return results, nil
}
