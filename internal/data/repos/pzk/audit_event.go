package pzk

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type AuditEventRepo interface {
	Create(dbc dbctx.Context, events []*types.AuditEvent) ([]*types.AuditEvent, error)
	ListByUserIDSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.AuditEvent, error)
}

type auditEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	repoLog := baseLog.With("repo", "AuditEventRepo")
	return &auditEventRepo{db: db, log: repoLog}
}

func (ar *auditEventRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return ar.db
}

func (ar *auditEventRepo) Create(dbc dbctx.Context, events []*types.AuditEvent) ([]*types.AuditEvent, error) {
	if len(events) == 0 {
		return []*types.AuditEvent{}, nil
	}
	if err := ar.handle(dbc).WithContext(dbc.Ctx).Create(&events).Error; err != nil {
		ar.log.Error("Create failed", "error", err)
		return nil, err
	}
	return events, nil
}

func (ar *auditEventRepo) ListByUserIDSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.AuditEvent, error) {
	var results []*types.AuditEvent
	if err := ar.handle(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		ar.log.Error("ListByUserIDSince failed", "error", err)
		return nil, err
	}
	return results, nil
}
