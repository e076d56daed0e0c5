package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/platform/tpay"
)

type purchaseFixture struct {
	svc          PurchaseService
	transactions *fakeTransactionRepo
	access       *fakeAccessRepo
	audit        *fakeAudit
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	t.Setenv("TPAY_MERCHANT_ID", "1010")
	t.Setenv("TPAY_SECURITY_CODE", "demo-code")
	db := testutil.DB(t)
	log := testutil.Logger(t)

	f := &purchaseFixture{
		transactions: newFakeTransactionRepo(),
		access:       &fakeAccessRepo{},
		audit:        &fakeAudit{},
	}
	accessSvc := NewAccessService(db, log, f.access, f.audit)
	svc, err := NewPurchaseService(db, log, f.transactions, accessSvc, f.audit)
	if err != nil {
		t.Fatalf("NewPurchaseService: %v", err)
	}
	f.svc = svc
	return f
}

func signedNotification(params *PaymentParams, status string) tpay.Notification {
	n := tpay.Notification{
		MerchantID: params.MerchantID,
		TrID:       "TR-2024-77",
		TrAmount:   params.Amount,
		TrCRC:      params.CRC,
		TrStatus:   status,
		TrError:    "none",
	}
	n.Md5sum = tpay.LegacyChecksum(n.MerchantID, n.TrID, n.TrAmount, n.TrCRC, "demo-code")
	return n
}

func TestPurchaseWebhookGrantsOnce(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	userID := uuid.New()

	params, err := f.svc.InitiatePurchase(ctx, userID, 2)
	if err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	if params.CRC != params.TransactionID.String() {
		t.Fatalf("crc %q does not echo the transaction id %s", params.CRC, params.TransactionID)
	}

	n := signedNotification(params, "TRUE")
	ok, err := f.svc.HandleNotification(ctx, n, nil, "", now)
	if err != nil || !ok {
		t.Fatalf("first notification: ok=%v err=%v", ok, err)
	}

	tx := f.transactions.transactions[params.TransactionID]
	if tx.Status != types.TransactionStatusSuccess || tx.ProviderTransactionID != "TR-2024-77" {
		t.Fatalf("transaction not settled: %+v", tx)
	}
	if len(f.access.grants) != 1 || f.access.grants[0].Module != 2 || f.access.grants[0].UserID != userID {
		t.Fatalf("grant wrong: %+v", f.access.grants)
	}
	if f.access.grants[0].SourceTransactionID == nil || *f.access.grants[0].SourceTransactionID != params.TransactionID {
		t.Fatalf("grant not linked to transaction")
	}

	// replay: still TRUE, still exactly one grant
	ok, err = f.svc.HandleNotification(ctx, n, nil, "", now)
	if err != nil || !ok {
		t.Fatalf("replayed notification: ok=%v err=%v", ok, err)
	}
	if len(f.access.grants) != 1 {
		t.Fatalf("replay double-granted: %d grants", len(f.access.grants))
	}
}

func TestPurchaseWebhookRejections(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()

	params, err := f.svc.InitiatePurchase(ctx, uuid.New(), 1)
	if err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}

	// tampered checksum
	bad := signedNotification(params, "TRUE")
	bad.Md5sum = "deadbeef"
	if ok, _ := f.svc.HandleNotification(ctx, bad, nil, "", now); ok {
		t.Fatalf("bad checksum acknowledged")
	}

	// amount mismatch
	wrongAmount := signedNotification(params, "TRUE")
	wrongAmount.TrAmount = "1.00"
	wrongAmount.Md5sum = tpay.LegacyChecksum(wrongAmount.MerchantID, wrongAmount.TrID, wrongAmount.TrAmount, wrongAmount.TrCRC, "demo-code")
	if ok, _ := f.svc.HandleNotification(ctx, wrongAmount, nil, "", now); ok {
		t.Fatalf("amount mismatch acknowledged")
	}

	// unknown tr_crc
	unknown := signedNotification(params, "TRUE")
	unknown.TrCRC = uuid.NewString()
	unknown.Md5sum = tpay.LegacyChecksum(unknown.MerchantID, unknown.TrID, unknown.TrAmount, unknown.TrCRC, "demo-code")
	if ok, _ := f.svc.HandleNotification(ctx, unknown, nil, "", now); ok {
		t.Fatalf("unknown transaction acknowledged")
	}

	if len(f.access.grants) != 0 {
		t.Fatalf("rejected notifications granted access: %+v", f.access.grants)
	}

	// failed payment settles the transaction but grants nothing
	failed := signedNotification(params, "FALSE")
	ok, err := f.svc.HandleNotification(ctx, failed, nil, "", now)
	if err != nil || !ok {
		t.Fatalf("failed-status notification: ok=%v err=%v", ok, err)
	}
	tx := f.transactions.transactions[params.TransactionID]
	if tx.Status != types.TransactionStatusFailed {
		t.Fatalf("status = %s, want failed", tx.Status)
	}
	if len(f.access.grants) != 0 {
		t.Fatalf("failed payment granted access")
	}
}

// flakyAccessService fails the first Grant calls, then delegates.
type flakyAccessService struct {
	AccessService
	failGrants int
}

func (f *flakyAccessService) Grant(dbc dbctx.Context, userID uuid.UUID, module int, now time.Time, sourceTransactionID *uuid.UUID) (*types.ModuleAccess, error) {
	if f.failGrants > 0 {
		f.failGrants--
		return nil, apierr.Unexpected(fmt.Errorf("grant store unavailable"))
	}
	return f.AccessService.Grant(dbc, userID, module, now, sourceTransactionID)
}

func TestPurchaseWebhookGrantFailureRollsBack(t *testing.T) {
	t.Setenv("TPAY_MERCHANT_ID", "1010")
	t.Setenv("TPAY_SECURITY_CODE", "demo-code")
	db := testutil.DB(t)
	log := testutil.Logger(t)
	audit := &fakeAudit{}

	transactions := pzk.NewTransactionRepo(db, log)
	accessRepo := pzk.NewModuleAccessRepo(db, log)
	flaky := &flakyAccessService{
		AccessService: NewAccessService(db, log, accessRepo, audit),
		failGrants:    1,
	}
	svc, err := NewPurchaseService(db, log, transactions, flaky, audit)
	if err != nil {
		t.Fatalf("NewPurchaseService: %v", err)
	}

	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	user := testutil.SeedUser(t, context.Background(), db, "rollback@example.com")

	params, err := svc.InitiatePurchase(ctx, user.ID, 2)
	if err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	n := signedNotification(params, "TRUE")

	ok, err := svc.HandleNotification(ctx, n, nil, "", now)
	if ok || err == nil {
		t.Fatalf("grant failure acknowledged: ok=%v err=%v", ok, err)
	}

	// the pending→success transition must have rolled back with the grant,
	// otherwise the gateway retry below would be treated as a replay
	row, err := transactions.GetByID(ctx, params.TransactionID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.Status != types.TransactionStatusPending {
		t.Fatalf("status after failed grant = %s, want pending", row.Status)
	}

	ok, err = svc.HandleNotification(ctx, n, nil, "", now)
	if err != nil || !ok {
		t.Fatalf("retry after failure: ok=%v err=%v", ok, err)
	}
	grants, err := accessRepo.ListActiveByUserID(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("ListActiveByUserID: %v", err)
	}
	if len(grants) != 1 || grants[0].Module != 2 {
		t.Fatalf("retry did not grant exactly once: %+v", grants)
	}
}

func TestPurchaseWebhookJWS(t *testing.T) {
	t.Setenv("TPAY_MERCHANT_ID", "1010")
	t.Setenv("TPAY_SECURITY_CODE", "")
	t.Setenv("TPAY_JWS_SECRET", "jws-secret")
	db := testutil.DB(t)
	log := testutil.Logger(t)

	transactions := newFakeTransactionRepo()
	access := &fakeAccessRepo{}
	audit := &fakeAudit{}
	svc, err := NewPurchaseService(db, log, transactions, NewAccessService(db, log, access, audit), audit)
	if err != nil {
		t.Fatalf("NewPurchaseService: %v", err)
	}

	ctx := dbctx.New(context.Background())
	now := time.Now().UTC()
	params, err := svc.InitiatePurchase(ctx, uuid.New(), 3)
	if err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}

	body := []byte(fmt.Sprintf("tr_id=TR-9&tr_amount=%s&tr_crc=%s&tr_status=TRUE", params.Amount, params.CRC))
	sig, err := tpay.SignJWS(body, []byte("jws-secret"))
	if err != nil {
		t.Fatalf("SignJWS: %v", err)
	}

	n := tpay.Notification{TrID: "TR-9", TrAmount: params.Amount, TrCRC: params.CRC, TrStatus: "TRUE"}
	ok, err := svc.HandleNotification(ctx, n, body, sig, now)
	if err != nil || !ok {
		t.Fatalf("JWS notification: ok=%v err=%v", ok, err)
	}
	if len(access.grants) != 1 {
		t.Fatalf("JWS path did not grant")
	}

	// tampered body under the same signature
	ok, _ = svc.HandleNotification(ctx, n, append(body, 'x'), sig, now)
	if ok {
		t.Fatalf("tampered JWS body acknowledged")
	}
}
