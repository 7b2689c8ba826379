package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/campaign-canvas-backend/internal/http/response"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type sendMessageReq struct {
	CampaignID uuid.UUID `json:"campaign_id" binding:"required"`
	Content    string    `json:"content"`
}

// POST /api/chat/message
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	reply, err := h.chat.SendMessage(dbctx.New(c.Request.Context()), req.CampaignID, req.Content)
	if err != nil {
		response.RespondAPIError(c, err, "send_message_failed")
		return
	}
	response.RespondOK(c, reply)
}

type confirmExecuteReq struct {
	CampaignID uuid.UUID `json:"campaign_id" binding:"required"`
}

// POST /api/chat/confirm-execute
func (h *ChatHandler) ConfirmExecute(c *gin.Context) {
	var req confirmExecuteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	start, err := h.chat.ConfirmExecute(dbctx.New(c.Request.Context()), req.CampaignID)
	if err != nil {
		response.RespondAPIError(c, err, "confirm_execute_failed")
		return
	}
	response.RespondAccepted(c, start)
}
