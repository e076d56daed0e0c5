package app

import (
	"gorm.io/gorm"

	authrepos "github.com/dietoteka/dietoteka-backend/internal/data/repos/auth"
	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	"github.com/dietoteka/dietoteka-backend/internal/data/repos/weight"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type Repos struct {
	User          authrepos.UserRepo
	Session       authrepos.SessionRepo
	Invitation    authrepos.InvitationRepo
	PasswordReset authrepos.PasswordResetRepo

	WeightEntry weight.EntryRepo

	Material      pzk.MaterialRepo
	MaterialPdf   pzk.MaterialPdfRepo
	MaterialVideo pzk.MaterialVideoRepo
	Category      pzk.CategoryRepo
	ModuleAccess  pzk.ModuleAccessRepo
	Transaction   pzk.TransactionRepo
	Note          pzk.NoteRepo
	Review        pzk.ReviewRepo
	AuditEvent    pzk.AuditEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          authrepos.NewUserRepo(db, log),
		Session:       authrepos.NewSessionRepo(db, log),
		Invitation:    authrepos.NewInvitationRepo(db, log),
		PasswordReset: authrepos.NewPasswordResetRepo(db, log),

		WeightEntry: weight.NewEntryRepo(db, log),

		Material:      pzk.NewMaterialRepo(db, log),
		MaterialPdf:   pzk.NewMaterialPdfRepo(db, log),
		MaterialVideo: pzk.NewMaterialVideoRepo(db, log),
		Category:      pzk.NewCategoryRepo(db, log),
		ModuleAccess:  pzk.NewModuleAccessRepo(db, log),
		Transaction:   pzk.NewTransactionRepo(db, log),
		Note:          pzk.NewNoteRepo(db, log),
		Review:        pzk.NewReviewRepo(db, log),
		AuditEvent:    pzk.NewAuditEventRepo(db, log),
	}
}
