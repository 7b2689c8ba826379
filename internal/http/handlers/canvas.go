package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/http/response"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/services"
)

type CanvasHandler struct {
	canvas services.CanvasService
}

func NewCanvasHandler(canvas services.CanvasService) *CanvasHandler {
	return &CanvasHandler{canvas: canvas}
}

// GET /api/canvas/:id
func (h *CanvasHandler) GetCanvas(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid_campaign_id")
	if !ok {
		return
	}
	view, err := h.canvas.Get(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondAPIError(c, err, "get_canvas_failed")
		return
	}
	response.RespondOK(c, view)
}

type modifyReq struct {
	Message string `json:"message"`
}

// POST /api/canvas/:id/modify
func (h *CanvasHandler) Modify(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid_campaign_id")
	if !ok {
		return
	}
	var req modifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.canvas.Modify(dbctx.New(c.Request.Context()), id, req.Message)
	if err != nil {
		response.RespondAPIError(c, err, "modify_canvas_failed")
		return
	}
	if res.Mode == domain.ModeAsync {
		response.RespondAccepted(c, res)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/canvas/:id/modifications/:mid
func (h *CanvasHandler) GetModification(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid_campaign_id")
	if !ok {
		return
	}
	mid, ok := idParam(c, "mid", "invalid_modification_id")
	if !ok {
		return
	}
	st, err := h.canvas.Poll(dbctx.New(c.Request.Context()), id, mid)
	if err != nil {
		response.RespondAPIError(c, err, "get_modification_failed")
		return
	}
	response.RespondOK(c, st)
}

// GET /api/canvas/:id/assets/:assetId/versions
func (h *CanvasHandler) ListVersions(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid_campaign_id")
	if !ok {
		return
	}
	assetID, ok := idParam(c, "assetId", "invalid_asset_id")
	if !ok {
		return
	}
	versions, err := h.canvas.Versions(dbctx.New(c.Request.Context()), id, assetID)
	if err != nil {
		response.RespondAPIError(c, err, "list_versions_failed")
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}
