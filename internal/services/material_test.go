package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
)

type materialFixture struct {
	svc       MaterialService
	accessSvc AccessService
	materials *fakeMaterialRepo
	pdfs      *fakePdfRepo
	videos    *fakeVideoRepo
	cats      *fakeCategoryRepo
	access    *fakeAccessRepo
	audit     *fakeAudit
}

func newMaterialFixture(t *testing.T) *materialFixture {
	t.Helper()
	log := testutil.Logger(t)
	f := &materialFixture{
		materials: newFakeMaterialRepo(),
		pdfs:      newFakePdfRepo(),
		videos:    &fakeVideoRepo{},
		cats:      newFakeCategoryRepo(),
		access:    &fakeAccessRepo{},
		audit:     &fakeAudit{},
	}
	f.accessSvc = NewAccessService(nil, log, f.access, f.audit)
	f.svc = NewMaterialService(nil, log, f.materials, f.pdfs, f.videos, f.cats, f.accessSvc, f.audit)
	return f
}

func (f *materialFixture) seedMaterial(module int, status string) *types.PzkMaterial {
	cat := &types.PzkCategory{ID: uuid.New(), Module: module, Name: "Jadłospisy"}
	f.cats.categories[cat.ID] = cat
	m := &types.PzkMaterial{
		ID:         uuid.New(),
		Module:     module,
		CategoryID: cat.ID,
		Title:      "Tydzień 1",
		Summary:    "Plan na pierwszy tydzień",
		Status:     status,
	}
	f.materials.materials[m.ID] = m
	return m
}

func (f *materialFixture) grantModule(userID uuid.UUID, module int, now time.Time) {
	f.access.grants = append(f.access.grants, &types.ModuleAccess{
		ID:        uuid.New(),
		UserID:    userID,
		Module:    module,
		StartAt:   now.Add(-time.Hour),
		ExpiresAt: now.Add(24 * time.Hour),
	})
}

func TestMaterialVisibility(t *testing.T) {
	f := newMaterialFixture(t)
	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	userID := uuid.New()
	f.grantModule(userID, 1, now)

	var ae *apierr.Error

	// draft and archived read as nonexistent even with access
	for _, status := range []string{types.MaterialStatusDraft, types.MaterialStatusArchived} {
		m := f.seedMaterial(1, status)
		_, err := f.svc.GetMaterial(ctx, userID, m.ID, now)
		if !errors.As(err, &ae) || ae.Status != 404 {
			t.Fatalf("%s material: got %v, want 404", status, err)
		}
	}

	// publish_soon returns a locked teaser with no children
	soon := f.seedMaterial(1, types.MaterialStatusPublishSoon)
	view, err := f.svc.GetMaterial(ctx, userID, soon.ID, now)
	if err != nil {
		t.Fatalf("publish_soon read: %v", err)
	}
	if !view.Locked || view.LockReason != LockReasonPublishSoon {
		t.Fatalf("publish_soon view not locked: %+v", view)
	}
	if view.Pdfs != nil || view.Videos != nil || view.Category != nil {
		t.Fatalf("locked teaser leaked children: %+v", view)
	}

	// published without access is forbidden with a reason
	other := f.seedMaterial(2, types.MaterialStatusPublished)
	_, err = f.svc.GetMaterial(ctx, userID, other.ID, now)
	if !errors.As(err, &ae) || ae.Status != 403 || ae.Reason != LockReasonNoAccess {
		t.Fatalf("no-access read: got %v, want 403 %s", err, LockReasonNoAccess)
	}

	// published with access carries pdfs, videos and category
	pub := f.seedMaterial(1, types.MaterialStatusPublished)
	f.pdfs.pdfs[uuid.New()] = &types.MaterialPdf{ID: uuid.New(), MaterialID: pub.ID, DisplayName: "plan.pdf", ObjectKey: "pzk/x/plan.pdf"}
	pdf := &types.MaterialPdf{ID: uuid.New(), MaterialID: pub.ID, DisplayName: "lista.pdf", ObjectKey: "pzk/x/lista.pdf"}
	f.pdfs.pdfs[pdf.ID] = pdf
	f.videos.videos = append(f.videos.videos, &types.MaterialVideo{ID: uuid.New(), MaterialID: pub.ID, Title: "Wprowadzenie", ProviderVideoID: "vid-1"})

	view, err = f.svc.GetMaterial(ctx, userID, pub.ID, now)
	if err != nil {
		t.Fatalf("unlocked read: %v", err)
	}
	if view.Locked || len(view.Pdfs) != 2 || len(view.Videos) != 1 || view.Category == nil {
		t.Fatalf("unlocked view incomplete: locked=%v pdfs=%d videos=%d cat=%v",
			view.Locked, len(view.Pdfs), len(view.Videos), view.Category)
	}
}

func TestMaterialListByModule(t *testing.T) {
	f := newMaterialFixture(t)
	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	userID := uuid.New()

	f.seedMaterial(1, types.MaterialStatusPublished)
	f.seedMaterial(1, types.MaterialStatusPublishSoon)
	f.seedMaterial(1, types.MaterialStatusDraft)
	f.seedMaterial(1, types.MaterialStatusArchived)

	// no grant: the whole listing is forbidden
	_, err := f.svc.ListByModule(ctx, userID, 1, now)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != 403 {
		t.Fatalf("listing without access: got %v, want 403", err)
	}

	f.grantModule(userID, 1, now)
	views, err := f.svc.ListByModule(ctx, userID, 1, now)
	if err != nil {
		t.Fatalf("ListByModule: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("listing returned %d rows, want published + publish_soon", len(views))
	}
	for _, v := range views {
		if v.Status == types.MaterialStatusPublishSoon && !v.Locked {
			t.Fatalf("publish_soon teaser not locked in listing")
		}
		if v.Status == types.MaterialStatusPublished && v.Locked {
			t.Fatalf("published row locked in listing")
		}
	}
}
