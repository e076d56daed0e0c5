package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RolePatient,
		Status:    types.UserStatusActive,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedDietitian(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	u.Role = types.RoleDietitian
	if err := tx.WithContext(ctx).Model(u).Update("role", types.RoleDietitian).Error; err != nil {
		tb.Fatalf("seed dietitian: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, module int) *types.PzkCategory {
	tb.Helper()
	c := &types.PzkCategory{
		ID:     uuid.New(),
		Module: module,
		Name:   "category",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, module int, categoryID uuid.UUID, status string) *types.PzkMaterial {
	tb.Helper()
	m := &types.PzkMaterial{
		ID:         uuid.New(),
		Module:     module,
		CategoryID: categoryID,
		Title:      "material",
		Summary:    "summary",
		Status:     status,
	}
	if status == types.MaterialStatusPublished {
		now := time.Now().UTC()
		m.PublishedAt = &now
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return m
}

func SeedPdf(tb testing.TB, ctx context.Context, tx *gorm.DB, materialID uuid.UUID, objectKey string) *types.MaterialPdf {
	tb.Helper()
	p := &types.MaterialPdf{
		ID:          uuid.New(),
		MaterialID:  materialID,
		DisplayName: "plan.pdf",
		ObjectKey:   objectKey,
		SizeBytes:   1024,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pdf: %v", err)
	}
	return p
}

func SeedAccess(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, module int, startAt, expiresAt time.Time, revokedAt *time.Time) *types.ModuleAccess {
	tb.Helper()
	a := &types.ModuleAccess{
		ID:        uuid.New(),
		UserID:    userID,
		Module:    module,
		StartAt:   startAt,
		ExpiresAt: expiresAt,
		RevokedAt: revokedAt,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed access: %v", err)
	}
	return a
}

func SeedReview(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, createdAt time.Time) *types.PzkReview {
	tb.Helper()
	r := &types.PzkReview{
		ID:        uuid.New(),
		UserID:    userID,
		Rating:    5,
		Body:      "review",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed review: %v", err)
	}
	return r
}

func SeedTransaction(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, module int) *types.PurchaseTransaction {
	tb.Helper()
	t := &types.PurchaseTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Module:      module,
		AmountGrosz: 19900,
		Status:      types.TransactionStatusPending,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed transaction: %v", err)
	}
	return t
}

func PtrTime(v time.Time) *time.Time { return &v }
