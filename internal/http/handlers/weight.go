package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type WeightHandler struct {
	log           *logger.Logger
	weightService services.WeightService
}

func NewWeightHandler(log *logger.Logger, weightService services.WeightService) *WeightHandler {
	return &WeightHandler{
		log:           log.With("handler", "WeightHandler"),
		weightService: weightService,
	}
}

// POST /weights
// body: { "measured_on": "2024-06-10", "weight_grams": 70500, "note": "..." }
func (wh *WeightHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		MeasuredOn  string `json:"measured_on"`
		WeightGrams int    `json:"weight_grams"`
		Note        string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	entry, err := wh.weightService.Create(dbctx.New(c.Request.Context()), userID, services.CreateWeightEntryInput{
		MeasuredOn:  req.MeasuredOn,
		WeightGrams: req.WeightGrams,
		Note:        req.Note,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"entry": entry, "editable": wh.weightService.EditableAt(entry.MeasuredOn, nowUTC())})
}

// GET /weights
func (wh *WeightHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entries, err := wh.weightService.List(dbctx.New(c.Request.Context()), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	now := nowUTC()
	type entryView struct {
		Entry    any  `json:"entry"`
		Editable bool `json:"editable"`
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{Entry: e, Editable: wh.weightService.EditableAt(e.MeasuredOn, now)})
	}
	response.RespondOK(c, gin.H{"entries": views})
}

// PATCH /weights/:entryID
// body: { "weight_grams": 70100, "note": "..." } — both optional
func (wh *WeightHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryID")
	if !ok {
		return
	}
	var req struct {
		WeightGrams *int    `json:"weight_grams"`
		Note        *string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	entry, err := wh.weightService.Update(dbctx.New(c.Request.Context()), userID, entryID, services.UpdateWeightEntryInput{
		WeightGrams: req.WeightGrams,
		Note:        req.Note,
	}, nowUTC())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entry": entry})
}

// DELETE /weights/:entryID
func (wh *WeightHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryID")
	if !ok {
		return
	}
	if err := wh.weightService.Delete(dbctx.New(c.Request.Context()), userID, entryID, nowUTC()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondNoContent(c)
}
