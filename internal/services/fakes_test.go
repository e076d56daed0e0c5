package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/platform/gcp"
)

// in-memory stand-ins for the repo interfaces; only what the services
// under test touch is implemented

type fakeEntryRepo struct {
	entries map[uuid.UUID]*types.WeightEntry
	deleted []uuid.UUID
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: map[uuid.UUID]*types.WeightEntry{}}
}

func (f *fakeEntryRepo) Create(_ dbctx.Context, entries []*types.WeightEntry) ([]*types.WeightEntry, error) {
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return entries, nil
}

func (f *fakeEntryRepo) GetByID(_ dbctx.Context, entryID uuid.UUID) (*types.WeightEntry, error) {
	return f.entries[entryID], nil
}

func (f *fakeEntryRepo) ListByUserID(_ dbctx.Context, userID uuid.UUID) ([]*types.WeightEntry, error) {
	var out []*types.WeightEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryRepo) Update(_ dbctx.Context, entry *types.WeightEntry) error {
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeEntryRepo) Delete(_ dbctx.Context, entryID uuid.UUID) error {
	delete(f.entries, entryID)
	f.deleted = append(f.deleted, entryID)
	return nil
}

type fakeAccessRepo struct {
	grants []*types.ModuleAccess
}

func (f *fakeAccessRepo) Create(_ dbctx.Context, grants []*types.ModuleAccess) ([]*types.ModuleAccess, error) {
	f.grants = append(f.grants, grants...)
	return grants, nil
}

func (f *fakeAccessRepo) ListActiveByUserID(_ dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.ModuleAccess, error) {
	var out []*types.ModuleAccess
	for _, g := range f.grants {
		if g.UserID == userID && g.ActiveAt(now) {
			out = append(out, g)
		}
	}
	// module asc, matching the real repo's ordering contract
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Module < out[i].Module {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeAccessRepo) HasActiveForModule(_ dbctx.Context, userID uuid.UUID, module int, now time.Time) (bool, error) {
	for _, g := range f.grants {
		if g.UserID == userID && g.Module == module && g.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccessRepo) HasAnyActive(_ dbctx.Context, userID uuid.UUID, now time.Time) (bool, error) {
	for _, g := range f.grants {
		if g.UserID == userID && g.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccessRepo) Revoke(_ dbctx.Context, grantID uuid.UUID, now time.Time) (bool, error) {
	for _, g := range f.grants {
		if g.ID == grantID && g.RevokedAt == nil {
			t := now
			g.RevokedAt = &t
			return true, nil
		}
	}
	return false, nil
}

type fakeMaterialRepo struct {
	materials map[uuid.UUID]*types.PzkMaterial
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{materials: map[uuid.UUID]*types.PzkMaterial{}}
}

func (f *fakeMaterialRepo) Create(_ dbctx.Context, materials []*types.PzkMaterial) ([]*types.PzkMaterial, error) {
	for _, m := range materials {
		f.materials[m.ID] = m
	}
	return materials, nil
}

func (f *fakeMaterialRepo) GetByID(_ dbctx.Context, materialID uuid.UUID) (*types.PzkMaterial, error) {
	return f.materials[materialID], nil
}

func (f *fakeMaterialRepo) GetByIDWithCategory(dbc dbctx.Context, materialID uuid.UUID) (*types.PzkMaterial, error) {
	return f.GetByID(dbc, materialID)
}

func (f *fakeMaterialRepo) ListByModuleAndStatuses(_ dbctx.Context, module int, statuses []string) ([]*types.PzkMaterial, error) {
	allowed := map[string]bool{}
	for _, s := range statuses {
		allowed[s] = true
	}
	var out []*types.PzkMaterial
	for _, m := range f.materials {
		if m.Module == module && allowed[m.Status] {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakePdfRepo struct {
	pdfs map[uuid.UUID]*types.MaterialPdf
}

func newFakePdfRepo() *fakePdfRepo {
	return &fakePdfRepo{pdfs: map[uuid.UUID]*types.MaterialPdf{}}
}

func (f *fakePdfRepo) Create(_ dbctx.Context, pdfs []*types.MaterialPdf) ([]*types.MaterialPdf, error) {
	for _, p := range pdfs {
		f.pdfs[p.ID] = p
	}
	return pdfs, nil
}

func (f *fakePdfRepo) GetByMaterialIDAndPdfID(_ dbctx.Context, materialID, pdfID uuid.UUID) (*types.MaterialPdf, error) {
	p := f.pdfs[pdfID]
	if p == nil || p.MaterialID != materialID {
		return nil, nil
	}
	return p, nil
}

func (f *fakePdfRepo) ListByMaterialID(_ dbctx.Context, materialID uuid.UUID) ([]*types.MaterialPdf, error) {
	var out []*types.MaterialPdf
	for _, p := range f.pdfs {
		if p.MaterialID == materialID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeVideoRepo struct {
	videos []*types.MaterialVideo
}

func (f *fakeVideoRepo) Create(_ dbctx.Context, videos []*types.MaterialVideo) ([]*types.MaterialVideo, error) {
	f.videos = append(f.videos, videos...)
	return videos, nil
}

func (f *fakeVideoRepo) ListByMaterialID(_ dbctx.Context, materialID uuid.UUID) ([]*types.MaterialVideo, error) {
	var out []*types.MaterialVideo
	for _, v := range f.videos {
		if v.MaterialID == materialID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeCategoryRepo struct {
	categories map[uuid.UUID]*types.PzkCategory
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[uuid.UUID]*types.PzkCategory{}}
}

func (f *fakeCategoryRepo) Create(_ dbctx.Context, categories []*types.PzkCategory) ([]*types.PzkCategory, error) {
	for _, c := range categories {
		f.categories[c.ID] = c
	}
	return categories, nil
}

func (f *fakeCategoryRepo) GetByID(_ dbctx.Context, categoryID uuid.UUID) (*types.PzkCategory, error) {
	return f.categories[categoryID], nil
}

func (f *fakeCategoryRepo) ListByModule(_ dbctx.Context, module int) ([]*types.PzkCategory, error) {
	var out []*types.PzkCategory
	for _, c := range f.categories {
		if c.Module == module {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeTransactionRepo struct {
	transactions map[uuid.UUID]*types.PurchaseTransaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{transactions: map[uuid.UUID]*types.PurchaseTransaction{}}
}

func (f *fakeTransactionRepo) Create(_ dbctx.Context, transactions []*types.PurchaseTransaction) ([]*types.PurchaseTransaction, error) {
	for _, tx := range transactions {
		f.transactions[tx.ID] = tx
	}
	return transactions, nil
}

func (f *fakeTransactionRepo) GetByID(_ dbctx.Context, transactionID uuid.UUID) (*types.PurchaseTransaction, error) {
	return f.transactions[transactionID], nil
}

func (f *fakeTransactionRepo) MarkProcessed(_ dbctx.Context, transactionID uuid.UUID, status, providerTransactionID string, now time.Time) (bool, error) {
	tx := f.transactions[transactionID]
	if tx == nil || tx.Status != types.TransactionStatusPending {
		return false, nil
	}
	tx.Status = status
	tx.ProviderTransactionID = providerTransactionID
	t := now
	tx.ProcessedAt = &t
	return true, nil
}

// fakeReviewRepo keeps reviews pre-sorted descending; ListPage slices
// strictly after the key the same way the SQL keyset does.
type fakeReviewRepo struct {
	ordered []*types.PzkReview
}

func (f *fakeReviewRepo) Upsert(_ dbctx.Context, review *types.PzkReview) (*types.PzkReview, error) {
	for i, r := range f.ordered {
		if r.UserID == review.UserID {
			r.Rating = review.Rating
			r.Body = review.Body
			return f.ordered[i], nil
		}
	}
	f.ordered = append(f.ordered, review)
	return review, nil
}

func (f *fakeReviewRepo) GetByUserID(_ dbctx.Context, userID uuid.UUID) (*types.PzkReview, error) {
	for _, r := range f.ordered {
		if r.UserID == userID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewRepo) ListPage(_ dbctx.Context, sort string, after *pzk.ReviewKey, limit int) ([]*types.PzkReview, error) {
	start := 0
	if after != nil {
		for i, r := range f.ordered {
			at := r.CreatedAt
			if sort == pzk.ReviewSortUpdatedAtDesc {
				at = r.UpdatedAt
			}
			if at.Equal(after.At) && r.ID == after.ID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(f.ordered) {
		end = len(f.ordered)
	}
	if start >= len(f.ordered) {
		return nil, nil
	}
	return f.ordered[start:end], nil
}

// fakeAudit records entries synchronously so tests can assert on them.
type fakeAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (f *fakeAudit) Emit(entry AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *fakeAudit) EmitSync(_ dbctx.Context, entry AuditEntry) error {
	f.Emit(entry)
	return nil
}

func (f *fakeAudit) ListForUserSince(_ dbctx.Context, _ uuid.UUID, _ time.Time) ([]*types.AuditEvent, error) {
	return nil, nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeBucket signs deterministic URLs without touching GCS.
type fakeBucket struct {
	signedKeys []string
	signErr    error
}

func (f *fakeBucket) UploadFile(_ dbctx.Context, _ gcp.BucketCategory, _ string, _ io.Reader) error {
	return nil
}
func (f *fakeBucket) DeleteFile(_ dbctx.Context, _ gcp.BucketCategory, _ string) error { return nil }
func (f *fakeBucket) DownloadFile(_ context.Context, _ gcp.BucketCategory, _ string) (io.ReadCloser, error) {
	return nil, nil
}
func (f *fakeBucket) GetObjectAttrs(_ context.Context, _ gcp.BucketCategory, _ string) (*gcp.ObjectAttrs, error) {
	return nil, nil
}
func (f *fakeBucket) ListKeys(_ context.Context, _ gcp.BucketCategory, _ string) ([]string, error) {
	return nil, nil
}
func (f *fakeBucket) SignedDownloadURL(_ context.Context, _ gcp.BucketCategory, key, filename string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	f.signedKeys = append(f.signedKeys, key)
	return "https://signed.example.com/" + key + "?fn=" + filename, nil
}
func (f *fakeBucket) GetPublicURL(_ gcp.BucketCategory, key string) string {
	return "https://cdn.example.com/" + key
}
