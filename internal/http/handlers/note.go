package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type NoteHandler struct {
	log         *logger.Logger
	noteService services.NoteService
}

func NewNoteHandler(log *logger.Logger, noteService services.NoteService) *NoteHandler {
	return &NoteHandler{
		log:         log.With("handler", "NoteHandler"),
		noteService: noteService,
	}
}

// GET /pzk/materials/:materialID/note
func (nh *NoteHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	materialID, ok := pathUUID(c, "materialID")
	if !ok {
		return
	}

	note, err := nh.noteService.Get(dbctx.New(c.Request.Context()), userID, materialID, nowUTC())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"note": note})
}

// PUT /pzk/materials/:materialID/note
// body: { "body": "..." } — creates or replaces, one note per user+material
func (nh *NoteHandler) Upsert(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	materialID, ok := pathUUID(c, "materialID")
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	note, err := nh.noteService.Upsert(dbctx.New(c.Request.Context()), userID, materialID, req.Body, nowUTC())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"note": note})
}
