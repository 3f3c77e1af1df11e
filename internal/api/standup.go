package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

type StandupHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewStandupHandler(svc *service.Service, logger *zap.Logger) *StandupHandler {
	return &StandupHandler{svc: svc, logger: logger}
}

type standupStartRequest struct {
	ChannelID int `json:"channelId"`
	Length    int `json:"length"`
}

type standupSendRequest struct {
	ChannelID int    `json:"channelId"`
	Message   string `json:"message"`
}

// Start handles POST /standup/start/v1
func (h *StandupHandler) Start(c *gin.Context) {
	var req standupStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	finish, err := h.svc.StartStandup(c.Request.Context(), middleware.GetToken(c), req.ChannelID, req.Length)
	if err != nil {
		respondError(c, h.logger, "start standup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeFinish": finish})
}

// Active handles GET /standup/active/v1
func (h *StandupHandler) Active(c *gin.Context) {
	var q channelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	status, err := h.svc.StandupActive(middleware.GetToken(c), q.ChannelID)
	if err != nil {
		respondError(c, h.logger, "standup active", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Send handles POST /standup/send/v1
func (h *StandupHandler) Send(c *gin.Context) {
	var req standupSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.SendStandup(c.Request.Context(), middleware.GetToken(c), req.ChannelID, req.Message); err != nil {
		respondError(c, h.logger, "send standup", err)
		return
	}
	ok(c)
}
