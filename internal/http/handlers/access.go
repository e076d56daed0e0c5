package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type AccessHandler struct {
	log           *logger.Logger
	accessService services.AccessService
}

func NewAccessHandler(log *logger.Logger, accessService services.AccessService) *AccessHandler {
	return &AccessHandler{
		log:           log.With("handler", "AccessHandler"),
		accessService: accessService,
	}
}

// GET /pzk/access
func (ah *AccessHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	access, err := ah.accessService.ListActive(dbctx.New(c.Request.Context()), userID, nowUTC())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"access": access})
}

// POST /access-grants — dietitian only
// body: { "user_id": "...", "module": 2 }
func (ah *AccessHandler) Grant(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
		Module int    `json:"module"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("user_id must be a uuid"))
		return
	}

	grant, err := ah.accessService.Grant(dbctx.New(c.Request.Context()), userID, req.Module, nowUTC(), nil)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"grant": grant})
}

// DELETE /access-grants/:grantID — dietitian only
func (ah *AccessHandler) Revoke(c *gin.Context) {
	grantID, ok := pathUUID(c, "grantID")
	if !ok {
		return
	}
	if err := ah.accessService.Revoke(dbctx.New(c.Request.Context()), grantID, nowUTC()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondNoContent(c)
}
