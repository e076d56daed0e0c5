package auth

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UpdatePassword(dbc dbctx.Context, userID uuid.UUID, passwordHash string) error
	UpdateAvatar(dbc dbctx.Context, userID uuid.UUID, bucketKey, url string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return ur.db
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := ur.handle(dbc).WithContext(dbc.Ctx).Create(&users).Error; err != nil {
		ur.log.Error("Create failed", "error", err)
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	var result types.User
	err := ur.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("GetByID failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var result types.User
	err := ur.handle(dbc).WithContext(dbc.Ctx).
		Where("email = ?", email).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("GetByEmail failed", "error", err)
		return nil, err
	}
	return &result, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := ur.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		ur.log.Error("EmailExists failed", "error", err)
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UpdatePassword(dbc dbctx.Context, userID uuid.UUID, passwordHash string) error {
	if err := ur.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash).Error; err != nil {
		ur.log.Error("UpdatePassword failed", "error", err)
		return err
	}
	return nil
}

func (ur *userRepo) UpdateAvatar(dbc dbctx.Context, userID uuid.UUID, bucketKey, url string) error {
	if err := ur.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"avatar_bucket_key": bucketKey,
			"avatar_url":        url,
		}).Error; err != nil {
		ur.log.Error("UpdateAvatar failed", "error", err)
		return err
	}
	return nil
}
