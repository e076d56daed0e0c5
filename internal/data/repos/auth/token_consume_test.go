package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
)

func TestPasswordResetRepoConsumeOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewPasswordResetRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "reset@example.com")
	now := time.Now().UTC()

	pr := &types.PasswordReset{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: "hash-1",
		ExpiresAt: now.Add(time.Hour),
	}
	if _, err := repo.Create(dbctx.WithTx(ctx, tx), []*types.PasswordReset{pr}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := repo.Consume(dbctx.WithTx(ctx, tx), "hash-1", now)
	if err != nil || !ok {
		t.Fatalf("first Consume: ok=%v err=%v", ok, err)
	}
	// a second device racing the same token loses
	ok, err = repo.Consume(dbctx.WithTx(ctx, tx), "hash-1", now)
	if err != nil || ok {
		t.Fatalf("second Consume: ok=%v err=%v", ok, err)
	}

	expired := &types.PasswordReset{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: "hash-2",
		ExpiresAt: now.Add(-time.Hour),
	}
	if _, err := repo.Create(dbctx.WithTx(ctx, tx), []*types.PasswordReset{expired}); err != nil {
		t.Fatalf("Create expired: %v", err)
	}
	ok, err = repo.Consume(dbctx.WithTx(ctx, tx), "hash-2", now)
	if err != nil || ok {
		t.Fatalf("expired Consume: ok=%v err=%v", ok, err)
	}
}

func TestInvitationRepoConsumeOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewInvitationRepo(db, testutil.Logger(t))

	dietitian := testutil.SeedDietitian(t, ctx, tx, "diet@example.com")
	now := time.Now().UTC()

	inv := &types.Invitation{
		ID:          uuid.New(),
		Email:       "newpatient@example.com",
		TokenHash:   "inv-hash",
		InvitedByID: dietitian.ID,
		ExpiresAt:   now.Add(72 * time.Hour),
	}
	if _, err := repo.Create(dbctx.WithTx(ctx, tx), []*types.Invitation{inv}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByTokenHash(dbctx.WithTx(ctx, tx), "inv-hash")
	if err != nil || got == nil {
		t.Fatalf("GetByTokenHash: got=%v err=%v", got, err)
	}

	ok, err := repo.Consume(dbctx.WithTx(ctx, tx), "inv-hash", now)
	if err != nil || !ok {
		t.Fatalf("first Consume: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Consume(dbctx.WithTx(ctx, tx), "inv-hash", now)
	if err != nil || ok {
		t.Fatalf("second Consume: ok=%v err=%v", ok, err)
	}
}
