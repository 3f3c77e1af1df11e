package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

type MessageHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewMessageHandler(svc *service.Service, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, logger: logger}
}

type sendRequest struct {
	ChannelID int    `json:"channelId"`
	Message   string `json:"message"`
}

type sendDMRequest struct {
	DMID    int    `json:"dmId"`
	Message string `json:"message"`
}

type sendLaterRequest struct {
	ChannelID int    `json:"channelId"`
	Message   string `json:"message"`
	TimeSent  int64  `json:"timeSent"`
}

type sendLaterDMRequest struct {
	DMID     int    `json:"dmId"`
	Message  string `json:"message"`
	TimeSent int64  `json:"timeSent"`
}

type editRequest struct {
	MessageID int    `json:"messageId"`
	Message   string `json:"message"`
}

type messageRequest struct {
	MessageID int `json:"messageId"`
}

type messageQuery struct {
	MessageID int `form:"messageId"`
}

type reactRequest struct {
	MessageID int `json:"messageId"`
	ReactID   int `json:"reactId"`
}

type shareRequest struct {
	OgMessageID int    `json:"ogMessageId"`
	Message     string `json:"message"`
	ChannelID   int    `json:"channelId"`
	DMID        int    `json:"dmId"`
}

type searchQuery struct {
	QueryStr string `form:"queryStr"`
}

// Send handles POST /message/send/v2
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.svc.SendMessage(c.Request.Context(), middleware.GetToken(c), req.ChannelID, req.Message)
	if err != nil {
		respondError(c, h.logger, "send message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": id})
}

// SendDM handles POST /message/senddm/v2
func (h *MessageHandler) SendDM(c *gin.Context) {
	var req sendDMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.svc.SendDM(c.Request.Context(), middleware.GetToken(c), req.DMID, req.Message)
	if err != nil {
		respondError(c, h.logger, "send dm", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": id})
}

// SendLater handles POST /message/sendlater/v1
func (h *MessageHandler) SendLater(c *gin.Context) {
	var req sendLaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.svc.SendLater(c.Request.Context(), middleware.GetToken(c), req.ChannelID, req.Message, req.TimeSent)
	if err != nil {
		respondError(c, h.logger, "send later", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": id})
}

// SendLaterDM handles POST /message/sendlaterdm/v1
func (h *MessageHandler) SendLaterDM(c *gin.Context) {
	var req sendLaterDMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.svc.SendLaterDM(c.Request.Context(), middleware.GetToken(c), req.DMID, req.Message, req.TimeSent)
	if err != nil {
		respondError(c, h.logger, "send later dm", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": id})
}

// Edit handles PUT /message/edit/v2
func (h *MessageHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.EditMessage(c.Request.Context(), middleware.GetToken(c), req.MessageID, req.Message); err != nil {
		respondError(c, h.logger, "edit message", err)
		return
	}
	ok(c)
}

// Remove handles DELETE /message/remove/v2?messageId=
func (h *MessageHandler) Remove(c *gin.Context) {
	var q messageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.RemoveMessage(c.Request.Context(), middleware.GetToken(c), q.MessageID); err != nil {
		respondError(c, h.logger, "remove message", err)
		return
	}
	ok(c)
}

// Share handles POST /message/share/v1
func (h *MessageHandler) Share(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.svc.ShareMessage(c.Request.Context(), middleware.GetToken(c), req.OgMessageID, req.Message, req.ChannelID, req.DMID)
	if err != nil {
		respondError(c, h.logger, "share message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sharedMessageId": id})
}

// Pin handles POST /message/pin/v1
func (h *MessageHandler) Pin(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.PinMessage(c.Request.Context(), middleware.GetToken(c), req.MessageID); err != nil {
		respondError(c, h.logger, "pin message", err)
		return
	}
	ok(c)
}

// Unpin handles POST /message/unpin/v1
func (h *MessageHandler) Unpin(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.UnpinMessage(c.Request.Context(), middleware.GetToken(c), req.MessageID); err != nil {
		respondError(c, h.logger, "unpin message", err)
		return
	}
	ok(c)
}

// React handles POST /message/react/v1
func (h *MessageHandler) React(c *gin.Context) {
	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.ReactMessage(c.Request.Context(), middleware.GetToken(c), req.MessageID, req.ReactID); err != nil {
		respondError(c, h.logger, "react", err)
		return
	}
	ok(c)
}

// Unreact handles POST /message/unreact/v1
func (h *MessageHandler) Unreact(c *gin.Context) {
	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.UnreactMessage(c.Request.Context(), middleware.GetToken(c), req.MessageID, req.ReactID); err != nil {
		respondError(c, h.logger, "unreact", err)
		return
	}
	ok(c)
}

// Search handles GET /search/v1
func (h *MessageHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	msgs, err := h.svc.Search(middleware.GetToken(c), q.QueryStr)
	if err != nil {
		respondError(c, h.logger, "search", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
