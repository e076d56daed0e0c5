package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	authrepos "github.com/dietoteka/dietoteka-backend/internal/data/repos/auth"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type UserService interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	UpdateAvatarFromImage(ctx context.Context, userID uuid.UUID, raw []byte) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      authrepos.UserRepo
	sessionRepo   authrepos.SessionRepo
	avatarService AvatarService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo authrepos.UserRepo, sessionRepo authrepos.SessionRepo, avatarService AvatarService) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		avatarService: avatarService,
	}
}

func (us *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if user == nil {
		return nil, apierr.NotFound(fmt.Errorf("user %s not found", userID))
	}
	return user, nil
}

func (us *userService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return apierr.Validation(err)
	}

	return us.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		user, err := us.userRepo.GetByID(dbc, userID)
		if err != nil {
			return apierr.Unexpected(err)
		}
		if user == nil {
			return apierr.NotFound(fmt.Errorf("user %s not found", userID))
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
			return apierr.Unauthorized(fmt.Errorf("current password does not match"))
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return apierr.Unexpected(err)
		}
		return us.userRepo.UpdatePassword(dbc, userID, string(hash))
	})
}

func (us *userService) UpdateAvatarFromImage(ctx context.Context, userID uuid.UUID, raw []byte) (*types.User, error) {
	dbc := dbctx.New(ctx)

	user, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if user == nil {
		return nil, apierr.NotFound(fmt.Errorf("user %s not found", userID))
	}

	if err := us.avatarService.CreateAndUploadUserAvatarFromImage(dbc, user, raw); err != nil {
		return nil, apierr.Validation(fmt.Errorf("could not process avatar image: %w", err))
	}
	return user, nil
}
