package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/dbctx"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type MaterialHandler struct {
	log             *logger.Logger
	materialService services.MaterialService
	downloadService services.DownloadService
}

func NewMaterialHandler(log *logger.Logger, materialService services.MaterialService, downloadService services.DownloadService) *MaterialHandler {
	return &MaterialHandler{
		log:             log.With("handler", "MaterialHandler"),
		materialService: materialService,
		downloadService: downloadService,
	}
}

// GET /pzk/materials?module=N
func (mh *MaterialHandler) ListByModule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	module, err := strconv.Atoi(c.Query("module"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("module query parameter is required"))
		return
	}

	views, err := mh.materialService.ListByModule(dbctx.New(c.Request.Context()), userID, module, nowUTC())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": views})
}

// GET /pzk/categories?module=N
func (mh *MaterialHandler) ListCategories(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	module, err := strconv.Atoi(c.Query("module"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("module query parameter is required"))
		return
	}

	categories, err := mh.materialService.ListCategories(dbctx.New(c.Request.Context()), module)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": categories})
}

// GET /pzk/materials/:materialID
func (mh *MaterialHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	materialID, ok := pathUUID(c, "materialID")
	if !ok {
		return
	}

	view, err := mh.materialService.GetMaterial(dbctx.New(c.Request.Context()), userID, materialID, nowUTC())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"material": view})
}

// GET /pzk/materials/:materialID/pdfs/:pdfID/download
// Issues a short-lived signed URL; the file itself never flows through here.
func (mh *MaterialHandler) DownloadPdf(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	materialID, ok := pathUUID(c, "materialID")
	if !ok {
		return
	}
	pdfID, ok := pathUUID(c, "pdfID")
	if !ok {
		return
	}

	download, err := mh.downloadService.PresignPdf(dbctx.New(c.Request.Context()), userID, materialID, pdfID, nowUTC())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"download": download})
}
