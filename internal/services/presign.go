package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/gcp"
)

const maxDownloadFilenameLen = 120

// PdfDownload is the presigned link handed to the client.
type PdfDownload struct {
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

type DownloadService interface {
	PresignPdf(dbc dbctx.Context, userID, materialID, pdfID uuid.UUID, now time.Time) (*PdfDownload, error)
}

type downloadService struct {
	db            *gorm.DB
	log           *logger.Logger
	materialRepo  pzk.MaterialRepo
	pdfRepo       pzk.MaterialPdfRepo
	accessService AccessService
	bucketService gcp.BucketService
	audit         AuditService
	ttl           time.Duration
}

func NewDownloadService(
	db *gorm.DB,
	log *logger.Logger,
	materialRepo pzk.MaterialRepo,
	pdfRepo pzk.MaterialPdfRepo,
	accessService AccessService,
	bucketService gcp.BucketService,
	audit AuditService,
) DownloadService {
	return &downloadService{
		db:            db,
		log:           log.With("service", "DownloadService"),
		materialRepo:  materialRepo,
		pdfRepo:       pdfRepo,
		accessService: accessService,
		bucketService: bucketService,
		audit:         audit,
		ttl:           gcp.DefaultSignedURLTTL,
	}
}

// PresignPdf gates on material visibility and module access before the pdf
// row is even looked up, then resolves the pdf by its composite key so a
// pdf id borrowed from another material dead-ends as 404. Every denial
// and failure branch leaves an audit event.
func (ds *downloadService) PresignPdf(dbc dbctx.Context, userID, materialID, pdfID uuid.UUID, now time.Time) (*PdfDownload, error) {
	deny := func(reason string, err *apierr.Error) (*PdfDownload, error) {
		ds.audit.Emit(AuditEntry{
			UserID:     &userID,
			Action:     AuditActionPdfDownloadDenied,
			MaterialID: &materialID,
			PdfID:      &pdfID,
			Reason:     reason,
		})
		return nil, err
	}

	material, err := ds.materialRepo.GetByID(dbc, materialID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if material == nil || material.Status == types.MaterialStatusDraft || material.Status == types.MaterialStatusArchived {
		return deny("material_not_found", apierr.NotFound(fmt.Errorf("material %s not found", materialID)))
	}
	if material.Status == types.MaterialStatusPublishSoon {
		return deny(LockReasonPublishSoon, apierr.Forbidden(LockReasonPublishSoon, fmt.Errorf("material %s is not published yet", materialID)))
	}

	hasAccess, err := ds.accessService.HasModuleAccess(dbc, userID, material.Module, now)
	if err != nil {
		return nil, err
	}
	if !hasAccess {
		return deny(LockReasonNoAccess, apierr.Forbidden(LockReasonNoAccess, fmt.Errorf("no active access to module %d", material.Module)))
	}

	pdf, err := ds.pdfRepo.GetByMaterialIDAndPdfID(dbc, materialID, pdfID)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}
	if pdf == nil {
		return deny("pdf_not_found", apierr.NotFound(fmt.Errorf("pdf %s not found under material %s", pdfID, materialID)))
	}

	filename := sanitizeDownloadFilename(pdf.DisplayName)
	url, err := ds.bucketService.SignedDownloadURL(dbc.Ctx, gcp.BucketCategoryMaterial, pdf.ObjectKey, filename, ds.ttl)
	if err != nil {
		return deny("storage_error", apierr.External(fmt.Errorf("sign download url: %w", err)))
	}

	ds.audit.Emit(AuditEntry{
		UserID:     &userID,
		Action:     AuditActionPdfDownload,
		MaterialID: &materialID,
		PdfID:      &pdfID,
	})

	return &PdfDownload{
		URL:       url,
		Filename:  filename,
		ExpiresIn: int(ds.ttl / time.Second),
	}, nil
}

// sanitizeDownloadFilename makes a display name safe to embed in a
// Content-Disposition header: path separators, quotes and control bytes
// are stripped and the result is clamped.
func sanitizeDownloadFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == '"' || r == '\'':
			continue
		case r < 0x20 || r == 0x7F:
			continue
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		out = "download.pdf"
	}
	if len(out) > maxDownloadFilenameLen {
		cut := maxDownloadFilenameLen
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut]
	}
	if !strings.HasSuffix(strings.ToLower(out), ".pdf") {
		out += ".pdf"
	}
	return out
}
