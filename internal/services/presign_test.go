package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
)

type presignFixture struct {
	svc       DownloadService
	materials *fakeMaterialRepo
	pdfs      *fakePdfRepo
	access    *fakeAccessRepo
	bucket    *fakeBucket
	audit     *fakeAudit
}

func newPresignFixture(t *testing.T) *presignFixture {
	t.Helper()
	log := testutil.Logger(t)
	f := &presignFixture{
		materials: newFakeMaterialRepo(),
		pdfs:      newFakePdfRepo(),
		access:    &fakeAccessRepo{},
		bucket:    &fakeBucket{},
		audit:     &fakeAudit{},
	}
	accessSvc := NewAccessService(nil, log, f.access, f.audit)
	f.svc = NewDownloadService(nil, log, f.materials, f.pdfs, accessSvc, f.bucket, f.audit)
	return f
}

func TestPresignPdfGateAndCompositeKey(t *testing.T) {
	f := newPresignFixture(t)
	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	userID := uuid.New()

	matA := &types.PzkMaterial{ID: uuid.New(), Module: 1, Status: types.MaterialStatusPublished}
	matB := &types.PzkMaterial{ID: uuid.New(), Module: 1, Status: types.MaterialStatusPublished}
	f.materials.materials[matA.ID] = matA
	f.materials.materials[matB.ID] = matB

	pdfA := &types.MaterialPdf{ID: uuid.New(), MaterialID: matA.ID, DisplayName: "Jadłospis tydzień 1.pdf", ObjectKey: "pzk/a/plan.pdf"}
	pdfB := &types.MaterialPdf{ID: uuid.New(), MaterialID: matB.ID, DisplayName: "inne.pdf", ObjectKey: "pzk/b/inne.pdf"}
	f.pdfs.pdfs[pdfA.ID] = pdfA
	f.pdfs.pdfs[pdfB.ID] = pdfB

	var ae *apierr.Error

	// no module access
	_, err := f.svc.PresignPdf(ctx, userID, matA.ID, pdfA.ID, now)
	if !errors.As(err, &ae) || ae.Status != 403 || ae.Reason != LockReasonNoAccess {
		t.Fatalf("without access: got %v, want 403 %s", err, LockReasonNoAccess)
	}

	f.access.grants = append(f.access.grants, &types.ModuleAccess{
		ID: uuid.New(), UserID: userID, Module: 1,
		StartAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	})

	// pdfB borrowed under matA dead-ends as 404
	_, err = f.svc.PresignPdf(ctx, userID, matA.ID, pdfB.ID, now)
	if !errors.As(err, &ae) || ae.Status != 404 {
		t.Fatalf("cross-material pdf: got %v, want 404", err)
	}

	dl, err := f.svc.PresignPdf(ctx, userID, matA.ID, pdfA.ID, now)
	if err != nil {
		t.Fatalf("legit presign: %v", err)
	}
	if !strings.Contains(dl.URL, "pzk/a/plan.pdf") {
		t.Fatalf("signed wrong object: %s", dl.URL)
	}
	if dl.ExpiresIn != 15*60 {
		t.Fatalf("ttl = %d, want 900", dl.ExpiresIn)
	}
	if len(f.bucket.signedKeys) != 1 {
		t.Fatalf("bucket signed %d keys, want 1", len(f.bucket.signedKeys))
	}

	// every branch above left an audit trail
	actions := f.audit.actions()
	denied, granted := 0, 0
	for _, a := range actions {
		switch a {
		case AuditActionPdfDownloadDenied:
			denied++
		case AuditActionPdfDownload:
			granted++
		}
	}
	if denied != 2 || granted != 1 {
		t.Fatalf("audit trail wrong: %v", actions)
	}
}

func TestPresignPdfUnpublishedStates(t *testing.T) {
	f := newPresignFixture(t)
	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	userID := uuid.New()
	f.access.grants = append(f.access.grants, &types.ModuleAccess{
		ID: uuid.New(), UserID: userID, Module: 1,
		StartAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	})

	var ae *apierr.Error
	for status, wantStatus := range map[string]int{
		types.MaterialStatusDraft:       404,
		types.MaterialStatusArchived:    404,
		types.MaterialStatusPublishSoon: 403,
	} {
		m := &types.PzkMaterial{ID: uuid.New(), Module: 1, Status: status}
		f.materials.materials[m.ID] = m
		pdf := &types.MaterialPdf{ID: uuid.New(), MaterialID: m.ID, DisplayName: "x.pdf", ObjectKey: "k"}
		f.pdfs.pdfs[pdf.ID] = pdf

		_, err := f.svc.PresignPdf(ctx, userID, m.ID, pdf.ID, now)
		if !errors.As(err, &ae) || ae.Status != wantStatus {
			t.Fatalf("%s material presign: got %v, want %d", status, err, wantStatus)
		}
	}
}

func TestPresignPdfStorageFailureAudited(t *testing.T) {
	f := newPresignFixture(t)
	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	userID := uuid.New()

	m := &types.PzkMaterial{ID: uuid.New(), Module: 1, Status: types.MaterialStatusPublished}
	f.materials.materials[m.ID] = m
	pdf := &types.MaterialPdf{ID: uuid.New(), MaterialID: m.ID, DisplayName: "plan.pdf", ObjectKey: "pzk/plan.pdf"}
	f.pdfs.pdfs[pdf.ID] = pdf
	f.access.grants = append(f.access.grants, &types.ModuleAccess{
		ID: uuid.New(), UserID: userID, Module: 1,
		StartAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	})
	f.bucket.signErr = errors.New("bucket unavailable")

	var ae *apierr.Error
	_, err := f.svc.PresignPdf(ctx, userID, m.ID, pdf.ID, now)
	if !errors.As(err, &ae) || ae.Status != 502 {
		t.Fatalf("signing failure: got %v, want 502", err)
	}

	entries := f.audit.entries
	if len(entries) != 1 || entries[0].Action != AuditActionPdfDownloadDenied || entries[0].Reason != "storage_error" {
		t.Fatalf("signing failure left no audit event: %+v", entries)
	}
}

func TestSanitizeDownloadFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jadłospis tydzień 1.pdf", "Jadłospis tydzień 1.pdf"},
		{`../../etc/passwd`, "....etcpasswd.pdf"},
		{`plan";evil=1.pdf`, "plan;evil=1.pdf"},
		{"line\r\nbreak.pdf", "linebreak.pdf"},
		{"", "download.pdf"},
		{"   ", "download.pdf"},
		{"bez-rozszerzenia", "bez-rozszerzenia.pdf"},
	}
	for _, c := range cases {
		if got := sanitizeDownloadFilename(c.in); got != c.want {
			t.Fatalf("sanitizeDownloadFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	long := strings.Repeat("a", 300) + ".pdf"
	got := sanitizeDownloadFilename(long)
	if len(got) > maxDownloadFilenameLen+4 {
		t.Fatalf("long name not clamped: %d bytes", len(got))
	}

	// clamp must not split a multi-byte rune mid-sequence
	runeStraddle := strings.Repeat("a", maxDownloadFilenameLen-1) + "łódź"
	got = sanitizeDownloadFilename(runeStraddle)
	if !utf8.ValidString(got) {
		t.Fatalf("clamped name is not valid utf-8: %q", got)
	}
	if len(got) > maxDownloadFilenameLen+4 {
		t.Fatalf("straddling name not clamped: %d bytes", len(got))
	}
}
