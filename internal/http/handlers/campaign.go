package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/campaign-canvas-backend/internal/http/response"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/services"
)

type CampaignHandler struct {
	campaigns services.CampaignService
}

func NewCampaignHandler(campaigns services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

type createCampaignReq struct {
	Title         string `json:"title"`
	InitialPrompt string `json:"initial_prompt"`
}

// POST /api/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req createCampaignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	campaign, err := h.campaigns.Create(dbctx.New(c.Request.Context()), req.Title, req.InitialPrompt)
	if err != nil {
		response.RespondAPIError(c, err, "create_campaign_failed")
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// GET /api/campaigns
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	list, err := h.campaigns.List(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err, "list_campaigns_failed")
		return
	}
	response.RespondOK(c, list)
}

// GET /api/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid_campaign_id")
	if !ok {
		return
	}
	campaign, err := h.campaigns.Get(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondAPIError(c, err, "get_campaign_failed")
		return
	}
	response.RespondOK(c, campaign)
}

// DELETE /api/campaigns/:id
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid_campaign_id")
	if !ok {
		return
	}
	if err := h.campaigns.Delete(dbctx.New(c.Request.Context()), id); err != nil {
		response.RespondAPIError(c, err, "delete_campaign_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Campaign deleted successfully"})
}

// GET /api/campaigns/:id/messages
func (h *CampaignHandler) ListMessages(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid_campaign_id")
	if !ok {
		return
	}
	msgs, err := h.campaigns.Messages(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondAPIError(c, err, "list_messages_failed")
		return
	}
	response.RespondOK(c, msgs)
}
