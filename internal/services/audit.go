package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

const (
	AuditActionPdfDownload        = "pdf_download"
	AuditActionPdfDownloadDenied  = "pdf_download_denied"
	AuditActionMaterialRead       = "material_read"
	AuditActionMaterialReadDenied = "material_read_denied"
	AuditActionAccessGranted      = "access_granted"
	AuditActionAccessRevoked      = "access_revoked"
	AuditActionPaymentProcessed   = "payment_processed"
	AuditActionLogin              = "login"
	AuditActionLoginFailed        = "login_failed"
)

type AuditEntry struct {
	UserID     *uuid.UUID
	Action     string
	MaterialID *uuid.UUID
	PdfID      *uuid.UUID
	Reason     string
	Details    map[string]any
}

// AuditService records who touched what. Emission is fire-and-forget:
// the calling operation never waits on or fails because of the audit
// write; failures land in the log as a dead letter.
type AuditService interface {
	Emit(entry AuditEntry)
	EmitSync(dbc dbctx.Context, entry AuditEntry) error
	ListForUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.AuditEvent, error)
}

type auditService struct {
	db        *gorm.DB
	log       *logger.Logger
	auditRepo pzk.AuditEventRepo
}

func NewAuditService(db *gorm.DB, log *logger.Logger, auditRepo pzk.AuditEventRepo) AuditService {
	return &auditService{
		db:        db,
		log:       log.With("service", "AuditService"),
		auditRepo: auditRepo,
	}
}

func (as *auditService) Emit(entry AuditEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := as.EmitSync(dbctx.New(ctx), entry); err != nil {
			as.log.Error("Audit event dropped",
				"action", entry.Action,
				"reason", entry.Reason,
				"error", err,
			)
		}
	}()
}

func (as *auditService) EmitSync(dbc dbctx.Context, entry AuditEntry) error {
	ev := &types.AuditEvent{
		ID:         uuid.New(),
		UserID:     entry.UserID,
		Action:     entry.Action,
		MaterialID: entry.MaterialID,
		PdfID:      entry.PdfID,
		Reason:     entry.Reason,
	}
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		ev.Details = datatypes.JSON(raw)
	}
	_, err := as.auditRepo.Create(dbc, []*types.AuditEvent{ev})
	return err
}

func (as *auditService) ListForUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.AuditEvent, error) {
	return as.auditRepo.ListByUserIDSince(dbc, userID, since)
}
