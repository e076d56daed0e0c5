package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/pzk"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
	"github.com/dietoteka/dietoteka-backend/internal/platform/tpay"
)

// PaymentParams is what the client needs to open the gateway checkout.
// CRC is the transaction id; the gateway echoes it back in tr_crc so the
// webhook can correlate.
type PaymentParams struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	MerchantID    string    `json:"merchant_id"`
	Amount        string    `json:"amount"`
	CRC           string    `json:"crc"`
	Description   string    `json:"description"`
}

type PurchaseService interface {
	InitiatePurchase(dbc dbctx.Context, userID uuid.UUID, module int) (*PaymentParams, error)
	// HandleNotification processes a gateway callback. The returned bool is
	// the body of the webhook response: true renders TRUE, false FALSE.
	HandleNotification(dbc dbctx.Context, n tpay.Notification, rawBody []byte, jwsHeader string, now time.Time) (bool, error)
}

type purchaseService struct {
	db              *gorm.DB
	log             *logger.Logger
	transactionRepo pzk.TransactionRepo
	accessService   AccessService
	audit           AuditService

	merchantID   string
	securityCode string
	jwsSecret    []byte
	prices       map[int]int64
}

func NewPurchaseService(
	db *gorm.DB,
	log *logger.Logger,
	transactionRepo pzk.TransactionRepo,
	accessService AccessService,
	audit AuditService,
) (PurchaseService, error) {
	merchantID := strings.TrimSpace(envutil.String("TPAY_MERCHANT_ID", ""))
	securityCode := strings.TrimSpace(envutil.String("TPAY_SECURITY_CODE", ""))
	jwsSecret := strings.TrimSpace(envutil.String("TPAY_JWS_SECRET", ""))
	if merchantID == "" {
		return nil, fmt.Errorf("missing TPAY_MERCHANT_ID")
	}
	if securityCode == "" && jwsSecret == "" {
		return nil, fmt.Errorf("set TPAY_SECURITY_CODE or TPAY_JWS_SECRET")
	}

	prices := map[int]int64{
		1: int64(envutil.Int("PZK_MODULE1_PRICE_GROSZ", 14900)),
		2: int64(envutil.Int("PZK_MODULE2_PRICE_GROSZ", 14900)),
		3: int64(envutil.Int("PZK_MODULE3_PRICE_GROSZ", 14900)),
	}

	return &purchaseService{
		db:              db,
		log:             log.With("service", "PurchaseService"),
		transactionRepo: transactionRepo,
		accessService:   accessService,
		audit:           audit,
		merchantID:      merchantID,
		securityCode:    securityCode,
		jwsSecret:       []byte(jwsSecret),
		prices:          prices,
	}, nil
}

func (ps *purchaseService) InitiatePurchase(dbc dbctx.Context, userID uuid.UUID, module int) (*PaymentParams, error) {
	price, ok := ps.prices[module]
	if !ok {
		return nil, apierr.Validation(fmt.Errorf("module must be between %d and %d", types.ModuleMin, types.ModuleMax))
	}

	tx := &types.PurchaseTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Module:      module,
		AmountGrosz: price,
		Status:      types.TransactionStatusPending,
	}
	if _, err := ps.transactionRepo.Create(dbc, []*types.PurchaseTransaction{tx}); err != nil {
		return nil, apierr.Unexpected(err)
	}

	return &PaymentParams{
		TransactionID: tx.ID,
		MerchantID:    ps.merchantID,
		Amount:        formatGrosz(price),
		CRC:           tx.ID.String(),
		Description:   fmt.Sprintf("PZK modul %d", module),
	}, nil
}

func (ps *purchaseService) HandleNotification(dbc dbctx.Context, n tpay.Notification, rawBody []byte, jwsHeader string, now time.Time) (bool, error) {
	if err := ps.verifySignature(n, rawBody, jwsHeader); err != nil {
		ps.log.Warn("Payment notification signature rejected", "tr_id", n.TrID, "error", err)
		return false, nil
	}

	transactionID, err := uuid.Parse(strings.TrimSpace(n.TrCRC))
	if err != nil {
		ps.log.Warn("Payment notification with unparseable tr_crc", "tr_crc", n.TrCRC)
		return false, nil
	}

	purchase, err := ps.transactionRepo.GetByID(dbc, transactionID)
	if err != nil {
		return false, apierr.Unexpected(err)
	}
	if purchase == nil {
		ps.log.Warn("Payment notification for unknown transaction", "tr_crc", n.TrCRC)
		return false, nil
	}

	if !amountMatches(n.TrAmount, purchase.AmountGrosz) {
		ps.log.Warn("Payment notification amount mismatch",
			"tr_id", n.TrID,
			"tr_amount", n.TrAmount,
			"expected_grosz", purchase.AmountGrosz,
		)
		return false, nil
	}

	status := types.TransactionStatusFailed
	if n.StatusOK() {
		status = types.TransactionStatusSuccess
	}

	// the status transition and the grant settle or roll back together:
	// a half-settled success would make every gateway retry a replay and
	// the customer would never receive the module
	var transitioned bool
	err = ps.db.Transaction(func(tx *gorm.DB) error {
		txc := dbctx.WithTx(dbc.Ctx, tx)

		var terr error
		transitioned, terr = ps.transactionRepo.MarkProcessed(txc, purchase.ID, status, n.TrID, now)
		if terr != nil {
			return apierr.Unexpected(terr)
		}
		if !transitioned {
			return nil
		}
		if status == types.TransactionStatusSuccess {
			if _, terr := ps.accessService.Grant(txc, purchase.UserID, purchase.Module, now, &purchase.ID); terr != nil {
				return terr
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if !transitioned {
		// replay of an already-settled notification: acknowledge, change nothing
		ps.log.Info("Payment notification replayed", "tr_id", n.TrID, "transaction_id", purchase.ID)
		return true, nil
	}

	ps.audit.Emit(AuditEntry{
		UserID: &purchase.UserID,
		Action: AuditActionPaymentProcessed,
		Details: map[string]any{
			"transaction_id": purchase.ID.String(),
			"tr_id":          n.TrID,
			"status":         status,
			"module":         purchase.Module,
		},
	})
	return true, nil
}

// verifySignature prefers the JWS header when present and falls back to
// the legacy md5 checksum.
func (ps *purchaseService) verifySignature(n tpay.Notification, rawBody []byte, jwsHeader string) error {
	if strings.TrimSpace(jwsHeader) != "" && len(ps.jwsSecret) > 0 {
		return tpay.VerifyJWS(jwsHeader, rawBody, ps.jwsSecret)
	}
	if ps.securityCode != "" {
		return tpay.VerifyLegacy(n, ps.securityCode)
	}
	return fmt.Errorf("no verifiable signature on notification")
}

func formatGrosz(grosz int64) string {
	return fmt.Sprintf("%d.%02d", grosz/100, grosz%100)
}

func amountMatches(trAmount string, expectedGrosz int64) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(trAmount), 64)
	if err != nil {
		return false
	}
	return int64(f*100+0.5) == expectedGrosz
}
