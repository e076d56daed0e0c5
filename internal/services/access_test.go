package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
)

func TestAccessListActiveDedupesModules(t *testing.T) {
	log := testutil.Logger(t)
	repo := &fakeAccessRepo{}
	svc := NewAccessService(nil, log, repo, &fakeAudit{})

	ctx := dbctx.New(context.Background())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	addGrant := func(module int, start, expiry time.Time, revoked bool) {
		g := &types.ModuleAccess{
			ID: uuid.New(), UserID: userID, Module: module,
			StartAt: start, ExpiresAt: expiry,
		}
		if revoked {
			r := now.Add(-time.Minute)
			g.RevokedAt = &r
		}
		repo.grants = append(repo.grants, g)
	}

	// module 1 twice (overlapping), module 3 once, plus noise that must not count
	addGrant(1, now.Add(-48*time.Hour), now.Add(24*time.Hour), false)
	addGrant(1, now.Add(-time.Hour), now.Add(365*24*time.Hour), false)
	addGrant(3, now.Add(-time.Hour), now.Add(time.Hour), false)
	addGrant(2, now.Add(-time.Hour), now.Add(time.Hour), true)           // revoked
	addGrant(2, now.Add(time.Hour), now.Add(48*time.Hour), false)       // not started
	addGrant(2, now.Add(-48*time.Hour), now.Add(-time.Minute), false)   // expired

	got, err := svc.ListActive(ctx, userID, now)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got.Modules) != 2 || got.Modules[0] != 1 || got.Modules[1] != 3 {
		t.Fatalf("modules = %v, want [1 3]", got.Modules)
	}
	if len(got.Grants) != 3 {
		t.Fatalf("grants = %d, want the 3 active rows", len(got.Grants))
	}
	for _, g := range got.Grants {
		if _, err := time.Parse(time.RFC3339, g.StartAt); err != nil {
			t.Fatalf("start_at %q is not RFC3339", g.StartAt)
		}
		if _, err := time.Parse(time.RFC3339, g.ExpiresAt); err != nil {
			t.Fatalf("expires_at %q is not RFC3339", g.ExpiresAt)
		}
	}
}

func TestAccessListActiveRejectsCorruptModule(t *testing.T) {
	log := testutil.Logger(t)
	repo := &fakeAccessRepo{}
	svc := NewAccessService(nil, log, repo, &fakeAudit{})

	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	userID := uuid.New()
	repo.grants = append(repo.grants, &types.ModuleAccess{
		ID: uuid.New(), UserID: userID, Module: 7,
		StartAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	})

	if _, err := svc.ListActive(ctx, userID, now); err == nil {
		t.Fatalf("grant with module 7 served instead of erroring")
	}
}

func TestAccessGrantBounds(t *testing.T) {
	log := testutil.Logger(t)
	repo := &fakeAccessRepo{}
	audit := &fakeAudit{}
	svc := NewAccessService(nil, log, repo, audit)

	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()

	if _, err := svc.Grant(ctx, uuid.New(), 0, now, nil); err == nil {
		t.Fatalf("module 0 accepted")
	}
	if _, err := svc.Grant(ctx, uuid.New(), 4, now, nil); err == nil {
		t.Fatalf("module 4 accepted")
	}

	grant, err := svc.Grant(ctx, uuid.New(), 2, now, nil)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	wantExpiry := now.AddDate(0, 0, 365)
	if !grant.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expiry = %s, want %s", grant.ExpiresAt, wantExpiry)
	}
}
