package pzk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
)

func TestReviewRepoKeysetPagination(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewReviewRepo(db, testutil.Logger(t))

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	seeded := map[uuid.UUID]bool{}
	for i := 0; i < 7; i++ {
		u := testutil.SeedUser(t, ctx, tx, fmt.Sprintf("rev%d@example.com", i))
		// two reviews share a timestamp so the id tiebreak is exercised
		at := base.Add(time.Duration(i/2) * time.Hour)
		r := testutil.SeedReview(t, ctx, tx, u.ID, at)
		seeded[r.ID] = true
	}

	var (
		after *ReviewKey
		got   []uuid.UUID
		prev  *types.PzkReview
	)
	for {
		page, err := repo.ListPage(dbcCtx(ctx, tx), ReviewSortCreatedAtDesc, after, 3)
		if err != nil {
			t.Fatalf("ListPage: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, r := range page {
			if prev != nil {
				if r.CreatedAt.After(prev.CreatedAt) {
					t.Fatalf("sort order violated: %v after %v", r.CreatedAt, prev.CreatedAt)
				}
				if r.CreatedAt.Equal(prev.CreatedAt) && r.ID.String() >= prev.ID.String() {
					t.Fatalf("id tiebreak violated")
				}
			}
			got = append(got, r.ID)
			prev = r
		}
		last := page[len(page)-1]
		after = &ReviewKey{At: last.CreatedAt, ID: last.ID}
		if len(page) < 3 {
			break
		}
	}

	if len(got) != len(seeded) {
		t.Fatalf("pagination returned %d rows, want %d", len(got), len(seeded))
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range got {
		if seen[id] {
			t.Fatalf("duplicate row %s across pages", id)
		}
		seen[id] = true
		if !seeded[id] {
			t.Fatalf("unexpected row %s", id)
		}
	}
}

func TestReviewRepoUpsertOnePerUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewReviewRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "oneper@example.com")

	first := &types.PzkReview{ID: uuid.New(), UserID: u.ID, Rating: 3, Body: "ok"}
	if _, err := repo.Upsert(dbcCtx(ctx, tx), first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	second := &types.PzkReview{ID: uuid.New(), UserID: u.ID, Rating: 5, Body: "better"}
	got, err := repo.Upsert(dbcCtx(ctx, tx), second)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("upsert created a second row: %s vs %s", got.ID, first.ID)
	}
	if got.Rating != 5 || got.Body != "better" {
		t.Fatalf("upsert did not update fields: %+v", got)
	}
}
