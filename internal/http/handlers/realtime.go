package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/http/response"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/ctxutil"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
)

// CampaignLookup resolves a campaign of the request user.
// services.CampaignService satisfies it.
type CampaignLookup interface {
	Get(dbc dbctx.Context, campaignID uuid.UUID) (*domain.Campaign, error)
}

type RealtimeHandler struct {
	Log       *logger.Logger
	Hub       *realtime.SSEHub
	campaigns CampaignLookup

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.SSEClient // key: SSEClient.ID
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, campaigns CampaignLookup) *RealtimeHandler {
	return &RealtimeHandler{
		Log:       log.With("handler", "RealtimeHandler"),
		Hub:       hub,
		campaigns: campaigns,
		clients:   make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /api/sse/stream?campaign_id=
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	client := h.Hub.NewSSEClient(userID)
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	// Every stream receives the user's own job events.
	h.Hub.AddChannel(client, realtime.UserChannel(userID))
	if raw := strings.TrimSpace(c.Query("campaign_id")); raw != "" {
		channel, status, err := h.authorize(c, userID, realtime.CampaignChannel(parseOrNil(raw)))
		if err != nil {
			h.drop(client)
			response.RespondError(c, status, "invalid_channel", err)
			return
		}
		h.Hub.AddChannel(client, channel)
	}
	h.Log.Info("SSEStream open", "user_id", userID, "client_id", client.ID)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.drop(client)
	h.Log.Debug("SSEStream closed", "user_id", userID, "client_id", client.ID)
}

func (h *RealtimeHandler) drop(client *realtime.SSEClient) {
	h.mu.Lock()
	delete(h.clients, client.ID)
	h.mu.Unlock()
	h.Hub.CloseClient(client)
}

type channelReq struct {
	Channel  string `json:"channel"`
	ClientID string `json:"client_id"`
}

// POST /api/sse/subscribe
func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	h.changeSubscription(c, true)
}

// POST /api/sse/unsubscribe
func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	h.changeSubscription(c, false)
}

func (h *RealtimeHandler) changeSubscription(c *gin.Context, subscribe bool) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	var req channelReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Channel) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		return
	}
	channel, status, err := h.authorize(c, userID, req.Channel)
	if err != nil {
		response.RespondError(c, status, "invalid_channel", err)
		return
	}

	targets := h.clientsFor(userID, req.ClientID)
	if len(targets) == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "no active SSE connection for this user"})
		return
	}
	for _, client := range targets {
		if subscribe {
			h.Hub.AddChannel(client, channel)
		} else {
			h.Hub.RemoveChannel(client, channel)
		}
	}
	msg := "unsubscribed"
	if subscribe {
		msg = "subscribed"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "channel": channel, "clients": len(targets)})
}

// clientsFor returns the named client, or every open client of the user
// when clientID is empty.
func (h *RealtimeHandler) clientsFor(userID uuid.UUID, clientID string) []*realtime.SSEClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clientID = strings.TrimSpace(clientID); clientID != "" {
		id, err := uuid.Parse(clientID)
		if err != nil {
			return nil
		}
		if client, ok := h.clients[id]; ok && client.UserID == userID {
			return []*realtime.SSEClient{client}
		}
		return nil
	}
	var out []*realtime.SSEClient
	for _, client := range h.clients {
		if client.UserID == userID {
			out = append(out, client)
		}
	}
	return out
}

// authorize admits the user's own channel and channels of campaigns the
// user owns.
func (h *RealtimeHandler) authorize(c *gin.Context, userID uuid.UUID, channel string) (string, int, error) {
	channel = strings.TrimSpace(channel)
	if channel == realtime.UserChannel(userID) {
		return channel, http.StatusOK, nil
	}
	campaignID, ok := realtime.ParseCampaignChannel(channel)
	if !ok || campaignID == uuid.Nil {
		return "", http.StatusForbidden, errForbiddenChannel
	}
	if h.campaigns == nil {
		return "", http.StatusForbidden, errForbiddenChannel
	}
	if _, err := h.campaigns.Get(dbctx.New(c.Request.Context()), campaignID); err != nil {
		return "", http.StatusNotFound, err
	}
	return channel, http.StatusOK, nil
}

func parseOrNil(raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}
