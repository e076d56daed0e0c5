package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/ctxutil"
)

func nowUTC() time.Time { return time.Now().UTC() }

// currentUserID reads the authenticated identity the auth middleware
// attached. Routes behind RequireAuth always have it; the false branch
// only fires on wiring mistakes.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.AbortError(c, http.StatusUnauthorized, "unauthorized", "missing session")
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("%s must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}
