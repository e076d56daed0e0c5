package handlers

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/tpay"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

// maxWebhookBodyBytes bounds the gateway callback body. Real
// notifications are a few hundred bytes of form data.
const maxWebhookBodyBytes = 64 << 10

type WebhookHandler struct {
	log             *logger.Logger
	purchaseService services.PurchaseService
}

func NewWebhookHandler(log *logger.Logger, purchaseService services.PurchaseService) *WebhookHandler {
	return &WebhookHandler{
		log:             log.With("handler", "WebhookHandler"),
		purchaseService: purchaseService,
	}
}

// POST /pzk/payments/webhook
//
// The gateway expects a bare-text body: TRUE acknowledges the
// notification, anything else makes it retry. This is the one endpoint
// that does not speak the JSON envelope.
func (wh *WebhookHandler) TpayNotification(c *gin.Context) {
	if c.Request.ContentLength > maxWebhookBodyBytes {
		c.String(http.StatusRequestEntityTooLarge, "FALSE")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		wh.log.Warn("webhook body read failed", "error", err)
		c.String(http.StatusRequestEntityTooLarge, "FALSE")
		return
	}

	form, err := url.ParseQuery(string(rawBody))
	if err != nil {
		wh.log.Warn("webhook body parse failed", "error", err)
		c.String(http.StatusOK, "FALSE")
		return
	}

	notification := tpay.Notification{
		MerchantID: form.Get("id"),
		TrID:       form.Get("tr_id"),
		TrAmount:   form.Get("tr_amount"),
		TrCRC:      form.Get("tr_crc"),
		TrStatus:   form.Get("tr_status"),
		TrError:    form.Get("tr_error"),
		Md5sum:     form.Get("md5sum"),
	}

	ok, err := wh.purchaseService.HandleNotification(
		dbctx.New(c.Request.Context()),
		notification,
		rawBody,
		c.GetHeader("X-JWS-Signature"),
		nowUTC(),
	)
	if err != nil {
		wh.log.Error("webhook processing failed", "tr_id", notification.TrID, "error", err)
		c.String(http.StatusOK, "FALSE")
		return
	}
	if !ok {
		c.String(http.StatusOK, "FALSE")
		return
	}
	c.String(http.StatusOK, "TRUE")
}
