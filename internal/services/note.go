package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

const noteBodyMax = 10_000

type NoteService interface {
	Upsert(dbc dbctx.Context, userID, materialID uuid.UUID, body string, now time.Time) (*types.PzkNote, error)
	Get(dbc dbctx.Context, userID, materialID uuid.UUID, now time.Time) (*types.PzkNote, error)
}

type noteService struct {
	db            *gorm.DB
	log           *logger.Logger
	noteRepo      pzk.NoteRepo
	materialRepo  pzk.MaterialRepo
	accessService AccessService
}

func NewNoteService(db *gorm.DB, log *logger.Logger, noteRepo pzk.NoteRepo, materialRepo pzk.MaterialRepo, accessService AccessService) NoteService {
	return &noteService{
		db:            db,
		log:           log.With("service", "NoteService"),
		noteRepo:      noteRepo,
		materialRepo:  materialRepo,
		accessService: accessService,
	}
}

func (ns *noteService) Upsert(dbc dbctx.Context, userID, materialID uuid.UUID, body string, now time.Time) (*types.PzkNote, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apierr.Validation(fmt.Errorf("body is required"))
	}
	if len(body) > noteBodyMax {
		return nil, apierr.Validation(fmt.Errorf("body exceeds %d characters", noteBodyMax))
	}
	if err := ns.gate(dbc, userID, materialID, now); err != nil {
		return nil, err
	}

	note := &types.PzkNote{
		ID:         uuid.New(),
		UserID:     userID,
		MaterialID: materialID,
		Body:       body,
	}
	saved, err := ns.noteRepo.Upsert(dbc, note)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	return saved, nil
}

func (ns *noteService) Get(dbc dbctx.Context, userID, materialID uuid.UUID, now time.Time) (*types.PzkNote, error) {
	if err := ns.gate(dbc, userID, materialID, now); err != nil {
		return nil, err
	}
	note, err := ns.noteRepo.GetByUserAndMaterial(dbc, userID, materialID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if note == nil {
		return nil, apierr.NotFound(fmt.Errorf("no note for material %s", materialID))
	}
	return note, nil
}

// gate applies the same visibility rules as a material read: notes only
// exist against materials the user can open.
func (ns *noteService) gate(dbc dbctx.Context, userID, materialID uuid.UUID, now time.Time) error {
	material, err := ns.materialRepo.GetByID(dbc, materialID)
	if err != nil {
		return apierr.Unexpected(err)
	}
	if material == nil || material.Status == types.MaterialStatusDraft || material.Status == types.MaterialStatusArchived {
		return apierr.NotFound(fmt.Errorf("material %s not found", materialID))
	}
	if material.Status == types.MaterialStatusPublishSoon {
		return apierr.Forbidden(LockReasonPublishSoon, fmt.Errorf("material %s is not published yet", materialID))
	}
	hasAccess, err := ns.accessService.HasModuleAccess(dbc, userID, material.Module, now)
	if err != nil {
		return err
	}
	if !hasAccess {
		return apierr.Forbidden(LockReasonNoAccess, fmt.Errorf("no active access to module %d", material.Module))
	}
	return nil
}
