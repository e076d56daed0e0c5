package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

const auditDefaultDays = 30

type AuditHandler struct {
	log          *logger.Logger
	auditService services.AuditService
}

func NewAuditHandler(log *logger.Logger, auditService services.AuditService) *AuditHandler {
	return &AuditHandler{
		log:          log.With("handler", "AuditHandler"),
		auditService: auditService,
	}
}

// GET /users/:userID/audit-events?days=30 — dietitian only
func (ah *AuditHandler) ListForUser(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	days := auditDefaultDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("days must be a positive integer"))
			return
		}
		days = n
	}

	since := nowUTC().Add(-time.Duration(days) * 24 * time.Hour)
	events, err := ah.auditService.ListForUserSince(dbctx.New(c.Request.Context()), userID, since)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}
