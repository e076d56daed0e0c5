package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
)

// GrantView is the API shape of one entitlement row; timestamps are
// rendered as RFC 3339 UTC.
type GrantView struct {
	ID        uuid.UUID `json:"id"`
	Module    int       `json:"module"`
	StartAt   string    `json:"start_at"`
	ExpiresAt string    `json:"expires_at"`
}

// ActiveAccess summarizes what a user can open right now. Modules is
// deduplicated and ascending even when several grants cover the same module.
type ActiveAccess struct {
	Modules []int       `json:"modules"`
	Grants  []GrantView `json:"grants"`
}

type AccessService interface {
	ListActive(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*ActiveAccess, error)
	HasModuleAccess(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time) (bool, error)
	Grant(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time, sourceTransactionID *uuid.UUID) (*types.ModuleAccess, error)
	Revoke(dbc dbctx.Context, grantID uuid.UUID, now time.Time) error
}

type accessService struct {
	db         *gorm.DB
	log        *logger.Logger
	accessRepo pzk.ModuleAccessRepo
	audit      AuditService
	grantDays  int
}

func NewAccessService(db *gorm.DB, log *logger.Logger, accessRepo pzk.ModuleAccessRepo, audit AuditService) AccessService {
	return &accessService{
		db:         db,
		log:        log.With("service", "AccessService"),
		accessRepo: accessRepo,
		audit:      audit,
		grantDays:  envutil.Int("PZK_ACCESS_DAYS", 365),
	}
}

func (as *accessService) ListActive(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*ActiveAccess, error) {
	grants, err := as.accessRepo.ListActiveByUserID(dbc, userID, now)
	if err != nil {
		return nil, apierr.Unexpected(err)
	}

	out := &ActiveAccess{
		Modules: []int{},
		Grants:  make([]GrantView, 0, len(grants)),
	}
	seen := map[int]bool{}
	for _, g := range grants {
		if g.Module < types.ModuleMin || g.Module > types.ModuleMax {
			return nil, apierr.Unexpected(fmt.Errorf("grant %s carries module %d outside %d..%d", g.ID, g.Module, types.ModuleMin, types.ModuleMax))
		}
		// repo orders by module asc, so the dedup keeps ascending order
		if !seen[g.Module] {
			seen[g.Module] = true
			out.Modules = append(out.Modules, g.Module)
		}
		out.Grants = append(out.Grants, GrantView{
			ID:        g.ID,
			Module:    g.Module,
			StartAt:   g.StartAt.UTC().Format(time.RFC3339),
			ExpiresAt: g.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

func (as *accessService) HasModuleAccess(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time) (bool, error) {
	if module < types.ModuleMin || module > types.ModuleMax {
		return false, apierr.Validation(fmt.Errorf("module must be between %d and %d", types.ModuleMin, types.ModuleMax))
	}
	ok, err := as.accessRepo.HasActiveForModule(dbc, userID, module, now)
	if err != nil {
		return false, apierr.Unexpected(err)
	}
	return ok, nil
}

func (as *accessService) Grant(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time, sourceTransactionID *uuid.UUID) (*types.ModuleAccess, error) {
	if module < types.ModuleMin || module > types.ModuleMax {
		return nil, apierr.Validation(fmt.Errorf("module must be between %d and %d", types.ModuleMin, types.ModuleMax))
	}

	grant := &types.ModuleAccess{
		ID:                  uuid.New(),
		UserID:              userID,
		Module:              module,
		StartAt:             now,
		ExpiresAt:           now.AddDate(0, 0, as.grantDays),
		SourceTransactionID: sourceTransactionID,
	}
	created, err := as.accessRepo.Create(dbc, []*types.ModuleAccess{grant})
	if err != nil {
		return nil, apierr.Unexpected(err)
	}

	as.audit.Emit(AuditEntry{
		UserID: &userID,
		Action: AuditActionAccessGranted,
		Details: map[string]any{
			"module":     module,
			"grant_id":   grant.ID.String(),
			"expires_at": grant.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
	return created[0], nil
}

func (as *accessService) Revoke(dbc dbctx.Context, grantID uuid.UUID, now time.Time) error {
	revoked, err := as.accessRepo.Revoke(dbc, grantID, now)
	if err != nil {
		return apierr.Unexpected(err)
	}
	if !revoked {
		return apierr.NotFound(fmt.Errorf("grant %s not found or already revoked", grantID))
	}
	as.audit.Emit(AuditEntry{
		Action:  AuditActionAccessRevoked,
		Details: map[string]any{"grant_id": grantID.String()},
	})
	return nil
}
