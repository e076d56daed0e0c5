package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type InvitationRepo interface {
	Create(dbc dbctx.Context, invitations []*types.Invitation) ([]*types.Invitation, error)
	GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.Invitation, error)
	// Consume marks the invitation used. The update is conditional on
	// used_at IS NULL so only one of two racing signups wins; the loser
	// gets consumed=false.
	Consume(dbc dbctx.Context, tokenHash string, now time.Time) (bool, error)
}

type invitationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInvitationRepo(db *gorm.DB, baseLog *logger.Logger) InvitationRepo {
	repoLog := baseLog.With("repo", "InvitationRepo")
	return &invitationRepo{db: db, log: repoLog}
}

func (ir *invitationRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return ir.db
}

func (ir *invitationRepo) Create(dbc dbctx.Context, invitations []*types.Invitation) ([]*types.Invitation, error) {
	if len(invitations) == 0 {
		return []*types.Invitation{}, nil
	}
	if err := ir.handle(dbc).WithContext(dbc.Ctx).Create(&invitations).Error; err != nil {
		ir.log.Error("Create failed", "error", err)
		return nil, err
	}
	return invitations, nil
}

func (ir *invitationRepo) GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.Invitation, error) {
	var result types.Invitation
	err := ir.handle(dbc).WithContext(dbc.Ctx).
		Where("token_hash = ?", tokenHash).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		ir.log.Error("GetByTokenHash failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (ir *invitationRepo) Consume(dbc dbctx.Context, tokenHash string, now time.Time) (bool, error) {
	res := ir.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Invitation{}).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("used_at", now)
	if res.Error != nil {
		ir.log.Error("Consume failed", "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
