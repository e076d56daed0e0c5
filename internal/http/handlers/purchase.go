package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type PurchaseHandler struct {
	log             *logger.Logger
	purchaseService services.PurchaseService
}

func NewPurchaseHandler(log *logger.Logger, purchaseService services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		log:             log.With("handler", "PurchaseHandler"),
		purchaseService: purchaseService,
	}
}

// POST /pzk/purchase
// body: { "module": 1 } — returns the parameters the frontend posts to
// the payment gateway.
func (ph *PurchaseHandler) Initiate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Module int `json:"module"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	params, err := ph.purchaseService.InitiatePurchase(dbctx.New(c.Request.Context()), userID, req.Module)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"payment": params})
}
