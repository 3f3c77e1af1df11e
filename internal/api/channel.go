package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

// ChannelHandler serves channel creation and the read-only channel routes.
// Membership changes live in membership.go.
type ChannelHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewChannelHandler(svc *service.Service, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{svc: svc, logger: logger}
}

type createChannelRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"isPublic"`
}

type channelQuery struct {
	ChannelID int `form:"channelId"`
}

type channelMessagesQuery struct {
	ChannelID int `form:"channelId"`
	Start     int `form:"start"`
}

// Create handles POST /channels/create/v3
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.svc.CreateChannel(c.Request.Context(), middleware.GetToken(c), req.Name, req.IsPublic)
	if err != nil {
		respondError(c, h.logger, "create channel", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channelId": id})
}

// List handles GET /channels/list/v3
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.svc.ListChannels(middleware.GetToken(c))
	if err != nil {
		respondError(c, h.logger, "list channels", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// ListAll handles GET /channels/listall/v3
func (h *ChannelHandler) ListAll(c *gin.Context) {
	channels, err := h.svc.ListAllChannels(middleware.GetToken(c))
	if err != nil {
		respondError(c, h.logger, "list all channels", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// Details handles GET /channel/details/v3
func (h *ChannelHandler) Details(c *gin.Context) {
	var q channelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	details, err := h.svc.ChannelDetails(middleware.GetToken(c), q.ChannelID)
	if err != nil {
		respondError(c, h.logger, "channel details", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Messages handles GET /channel/messages/v3
func (h *ChannelHandler) Messages(c *gin.Context) {
	var q channelMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.svc.ChannelMessages(middleware.GetToken(c), q.ChannelID, q.Start)
	if err != nil {
		respondError(c, h.logger, "channel messages", err)
		return
	}
	c.JSON(http.StatusOK, page)
}
