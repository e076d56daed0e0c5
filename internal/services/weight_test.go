package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
)

func newWeightServiceForTest(t *testing.T) (WeightService, *fakeEntryRepo) {
	t.Helper()
	repo := newFakeEntryRepo()
	svc, err := NewWeightService(nil, testutil.Logger(t), repo)
	if err != nil {
		t.Fatalf("NewWeightService: %v", err)
	}
	return svc, repo
}

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func TestWeightEditWindow(t *testing.T) {
	svc, _ := newWeightServiceForTest(t)
	loc := warsaw(t)

	const measuredOn = "2024-06-10"
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"same day", time.Date(2024, 6, 10, 12, 0, 0, 0, loc), true},
		{"next day last second", time.Date(2024, 6, 11, 23, 59, 59, 0, loc), true},
		{"two days later midnight", time.Date(2024, 6, 12, 0, 0, 0, 0, loc), false},
		{"two days later", time.Date(2024, 6, 12, 0, 0, 1, 0, loc), false},
		// 22:30 UTC is already 00:30 next day in Warsaw (CEST)
		{"window closes on clinic clock not utc", time.Date(2024, 6, 11, 22, 30, 0, 0, time.UTC), false},
	}
	for _, c := range cases {
		if got := svc.EditableAt(measuredOn, c.now); got != c.want {
			t.Fatalf("%s: EditableAt(%s, %s) = %v, want %v", c.name, measuredOn, c.now, got, c.want)
		}
	}

	if svc.EditableAt("not-a-date", time.Now()) {
		t.Fatalf("malformed date must not be editable")
	}
}

func TestWeightCreateValidation(t *testing.T) {
	svc, _ := newWeightServiceForTest(t)
	ctx := dbctx.New(context.Background())
	userID := uuid.New()

	if _, err := svc.Create(ctx, userID, CreateWeightEntryInput{MeasuredOn: "10.06.2024", WeightGrams: 70000}); err == nil {
		t.Fatalf("non-ISO date accepted")
	}
	if _, err := svc.Create(ctx, userID, CreateWeightEntryInput{MeasuredOn: "2024-06-10", WeightGrams: 5000}); err == nil {
		t.Fatalf("implausible weight accepted")
	}

	entry, err := svc.Create(ctx, userID, CreateWeightEntryInput{MeasuredOn: "2024-06-10", WeightGrams: 70500, Note: "po treningu"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entry.WeightGrams != 70500 || entry.MeasuredOn != "2024-06-10" {
		t.Fatalf("entry fields wrong: %+v", entry)
	}
}

func TestWeightUpdateOwnershipAndWindow(t *testing.T) {
	svc, repo := newWeightServiceForTest(t)
	ctx := dbctx.New(context.Background())
	owner := uuid.New()
	stranger := uuid.New()

	today := time.Now().In(warsaw(t)).Format("2006-01-02")
	entry, err := svc.Create(ctx, owner, CreateWeightEntryInput{MeasuredOn: today, WeightGrams: 70000})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().UTC()

	// a stranger probing the id sees 404, not 403
	_, err = svc.Update(ctx, stranger, entry.ID, UpdateWeightEntryInput{}, now)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != 404 {
		t.Fatalf("cross-user update: got %v, want 404", err)
	}

	newWeight := 69500
	updated, err := svc.Update(ctx, owner, entry.ID, UpdateWeightEntryInput{WeightGrams: &newWeight}, now)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.WeightGrams != 69500 {
		t.Fatalf("weight not updated: %+v", updated)
	}

	// the same entry frozen a few days on, without aging the row itself
	later := now.AddDate(0, 0, 3)
	_, err = svc.Update(ctx, owner, entry.ID, UpdateWeightEntryInput{WeightGrams: &newWeight}, later)
	if !errors.As(err, &ae) || ae.Status != 403 || ae.Reason != "edit_window_closed" {
		t.Fatalf("update days later: got %v, want 403 edit_window_closed", err)
	}

	// age an entry past the window and watch edits freeze
	old, err := svc.Create(ctx, owner, CreateWeightEntryInput{MeasuredOn: "2020-01-01", WeightGrams: 71000})
	if err != nil {
		t.Fatalf("Create old: %v", err)
	}
	_, err = svc.Update(ctx, owner, old.ID, UpdateWeightEntryInput{WeightGrams: &newWeight}, now)
	if !errors.As(err, &ae) || ae.Status != 403 || ae.Reason != "edit_window_closed" {
		t.Fatalf("stale update: got %v, want 403 edit_window_closed", err)
	}
	if err := svc.Delete(ctx, owner, old.ID, now); err == nil {
		t.Fatalf("stale delete accepted")
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("delete reached the repo despite closed window")
	}
}
