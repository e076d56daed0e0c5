package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type Services struct {
	Audit      services.AuditService
	Avatar     services.AvatarService
	Auth       services.AuthService
	User       services.UserService
	Invitation services.InvitationService
	Weight     services.WeightService
	Access     services.AccessService
	Material   services.MaterialService
	Download   services.DownloadService
	Note       services.NoteService
	Purchase   services.PurchaseService
	Review     services.ReviewService
}

func wireServices(db *gorm.DB, log *logger.Logger, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	audit := services.NewAuditService(db, log, repos.AuditEvent)

	avatar, err := services.NewAvatarService(log, repos.User, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	auth := services.NewAuthService(
		db, log,
		repos.User, repos.Session, repos.Invitation, repos.PasswordReset,
		avatar, clients.Mailer, clients.Captcha, audit,
	)
	user := services.NewUserService(db, log, repos.User, repos.Session, avatar)
	invitation := services.NewInvitationService(db, log, repos.Invitation, repos.User, clients.Mailer)

	weightSvc, err := services.NewWeightService(db, log, repos.WeightEntry)
	if err != nil {
		return Services{}, fmt.Errorf("init weight service: %w", err)
	}

	access := services.NewAccessService(db, log, repos.ModuleAccess, audit)
	material := services.NewMaterialService(
		db, log,
		repos.Material, repos.MaterialPdf, repos.MaterialVideo, repos.Category,
		access, audit,
	)
	download := services.NewDownloadService(
		db, log,
		repos.Material, repos.MaterialPdf,
		access, clients.Bucket, audit,
	)
	note := services.NewNoteService(db, log, repos.Note, repos.Material, access)

	purchase, err := services.NewPurchaseService(db, log, repos.Transaction, access, audit)
	if err != nil {
		return Services{}, fmt.Errorf("init purchase service: %w", err)
	}

	review := services.NewReviewService(db, log, repos.Review, access)

	return Services{
		Audit:      audit,
		Avatar:     avatar,
		Auth:       auth,
		User:       user,
		Invitation: invitation,
		Weight:     weightSvc,
		Access:     access,
		Material:   material,
		Download:   download,
		Note:       note,
		Purchase:   purchase,
		Review:     review,
	}, nil
}
