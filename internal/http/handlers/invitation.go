package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type InvitationHandler struct {
	log               *logger.Logger
	invitationService services.InvitationService
}

func NewInvitationHandler(log *logger.Logger, invitationService services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		log:               log.With("handler", "InvitationHandler"),
		invitationService: invitationService,
	}
}

// POST /invitations — dietitian only
// body: { "email": "patient@example.com" }
func (ih *InvitationHandler) Invite(c *gin.Context) {
	dietitianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	invitation, err := ih.invitationService.Invite(c.Request.Context(), dietitianID, req.Email)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"invitation": gin.H{
			"id":         invitation.ID,
			"email":      invitation.Email,
			"expires_at": invitation.ExpiresAt,
		},
	})
}
