package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

const (
	LockReasonPublishSoon = "publish_soon"
	LockReasonNoAccess    = "no_module_access"
)

// MaterialView is the read shape of a material. A locked view is a teaser:
// title and summary only, children and category stripped.
type MaterialView struct {
	ID         uuid.UUID             `json:"id"`
	Module     int                   `json:"module"`
	Title      string                `json:"title"`
	Summary    string                `json:"summary"`
	Status     string                `json:"status"`
	Locked     bool                  `json:"locked"`
	LockReason string                `json:"lock_reason,omitempty"`
	Category   *types.PzkCategory    `json:"category,omitempty"`
	Pdfs       []*types.MaterialPdf  `json:"pdfs,omitempty"`
	Videos     []*types.MaterialVideo `json:"videos,omitempty"`
}

type MaterialService interface {
	ListByModule(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time) ([]*MaterialView, error)
	GetMaterial(dbc dbctx.Context, userID, materialID uuid.UUID, now time.Time) (*MaterialView, error)
	ListCategories(dbc dbctx.Context, module int) ([]*types.PzkCategory, error)
}

type materialService struct {
	db            *gorm.DB
	log           *logger.Logger
	materialRepo  pzk.MaterialRepo
	pdfRepo       pzk.MaterialPdfRepo
	videoRepo     pzk.MaterialVideoRepo
	categoryRepo  pzk.CategoryRepo
	accessService AccessService
	audit         AuditService
}

func NewMaterialService(
	db *gorm.DB,
	log *logger.Logger,
	materialRepo pzk.MaterialRepo,
	pdfRepo pzk.MaterialPdfRepo,
	videoRepo pzk.MaterialVideoRepo,
	categoryRepo pzk.CategoryRepo,
	accessService AccessService,
	audit AuditService,
) MaterialService {
	return &materialService{
		db:            db,
		log:           log.With("service", "MaterialService"),
		materialRepo:  materialRepo,
		pdfRepo:       pdfRepo,
		videoRepo:     videoRepo,
		categoryRepo:  categoryRepo,
		accessService: accessService,
		audit:         audit,
	}
}

func (ms *materialService) ListByModule(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time) ([]*MaterialView, error) {
	hasAccess, err := ms.accessService.HasModuleAccess(dbc, userID, module, now)
	if err != nil {
		return nil, err
	}
	if !hasAccess {
		return nil, apierr.Forbidden(LockReasonNoAccess, fmt.Errorf("no active access to module %d", module))
	}

	// publish_soon rows appear as locked teasers alongside published ones;
	// drafts and archived rows never leave the database.
	materials, err := ms.materialRepo.ListByModuleAndStatuses(dbc, module, []string{
		types.MaterialStatusPublished,
		types.MaterialStatusPublishSoon,
	})
	if err != nil {
		return nil, apierr.Unexpected(err)
	}

	out := make([]*MaterialView, 0, len(materials))
	for _, m := range materials {
		v := teaserView(m)
		if m.Status == types.MaterialStatusPublishSoon {
			v.Locked = true
			v.LockReason = LockReasonPublishSoon
		}
		out = append(out, v)
	}
	return out, nil
}

func (ms *materialService) GetMaterial(dbc dbctx.Context, userID, materialID uuid.UUID, now time.Time) (*MaterialView, error) {
	material, err := ms.materialRepo.GetByID(dbc, materialID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if material == nil || material.Status == types.MaterialStatusDraft || material.Status == types.MaterialStatusArchived {
		return nil, apierr.NotFound(fmt.Errorf("material %s not found", materialID))
	}

	if material.Status == types.MaterialStatusPublishSoon {
		v := teaserView(material)
		v.Locked = true
		v.LockReason = LockReasonPublishSoon
		return v, nil
	}

	hasAccess, err := ms.accessService.HasModuleAccess(dbc, userID, material.Module, now)
	if err != nil {
		return nil, err
	}
	if !hasAccess {
		ms.audit.Emit(AuditEntry{
			UserID:     &userID,
			Action:     AuditActionMaterialReadDenied,
			MaterialID: &materialID,
			Reason:     LockReasonNoAccess,
		})
		return nil, apierr.Forbidden(LockReasonNoAccess, fmt.Errorf("no active access to module %d", material.Module))
	}

	view, err := ms.unlockedView(dbc, material)
	if err != nil {
		return nil, err
	}

	ms.audit.Emit(AuditEntry{
		UserID:     &userID,
		Action:     AuditActionMaterialRead,
		MaterialID: &materialID,
	})
	return view, nil
}

// unlockedView fans the three child reads out concurrently. Each branch
// gets its own dbctx on the pooled handle because a gorm tx is not safe
// for concurrent use.
func (ms *materialService) unlockedView(dbc dbctx.Context, material *types.PzkMaterial) (*MaterialView, error) {
	view := teaserView(material)

	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.Go(func() error {
		pdfs, err := ms.pdfRepo.ListByMaterialID(dbctx.New(gctx), material.ID)
		if err != nil {
			return err
		}
		view.Pdfs = pdfs
		return nil
	})
	g.Go(func() error {
		videos, err := ms.videoRepo.ListByMaterialID(dbctx.New(gctx), material.ID)
		if err != nil {
			return err
		}
		view.Videos = videos
		return nil
	})
	g.Go(func() error {
		category, err := ms.categoryRepo.GetByID(dbctx.New(gctx), material.CategoryID)
		if err != nil {
			return err
		}
		view.Category = category
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Unexpected(err)
	}
	return view, nil
}

func (ms *materialService) ListCategories(dbc dbctx.Context, module int) ([]*types.PzkCategory, error) {
	if module < types.ModuleMin || module > types.ModuleMax {
		return nil, apierr.Validation(fmt.Errorf("module must be between %d and %d", types.ModuleMin, types.ModuleMax))
	}
	categories, err := ms.categoryRepo.ListByModule(dbc, module)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	return categories, nil
}

func teaserView(m *types.PzkMaterial) *MaterialView {
	return &MaterialView{
		ID:      m.ID,
		Module:  m.Module,
		Title:   m.Title,
		Summary: m.Summary,
		Status:  m.Status,
	}
}
