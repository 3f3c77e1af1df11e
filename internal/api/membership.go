package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

// MembershipHandler serves joining, inviting, leaving and owner changes
// for channels.
type MembershipHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewMembershipHandler(svc *service.Service, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{svc: svc, logger: logger}
}

type channelRequest struct {
	ChannelID int `json:"channelId"`
}

type channelUserRequest struct {
	ChannelID int `json:"channelId"`
	UID       int `json:"uId"`
}

// Join handles POST /channel/join/v3
func (h *MembershipHandler) Join(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.JoinChannel(c.Request.Context(), middleware.GetToken(c), req.ChannelID); err != nil {
		respondError(c, h.logger, "join channel", err)
		return
	}
	ok(c)
}

// Invite handles POST /channel/invite/v3
func (h *MembershipHandler) Invite(c *gin.Context) {
	var req channelUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.InviteToChannel(c.Request.Context(), middleware.GetToken(c), req.ChannelID, req.UID); err != nil {
		respondError(c, h.logger, "invite to channel", err)
		return
	}
	ok(c)
}

// Leave handles POST /channel/leave/v2
func (h *MembershipHandler) Leave(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.LeaveChannel(c.Request.Context(), middleware.GetToken(c), req.ChannelID); err != nil {
		respondError(c, h.logger, "leave channel", err)
		return
	}
	ok(c)
}

// AddOwner handles POST /channel/addowner/v2
func (h *MembershipHandler) AddOwner(c *gin.Context) {
	var req channelUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.AddOwner(c.Request.Context(), middleware.GetToken(c), req.ChannelID, req.UID); err != nil {
		respondError(c, h.logger, "add owner", err)
		return
	}
	ok(c)
}

// RemoveOwner handles POST /channel/removeowner/v2
func (h *MembershipHandler) RemoveOwner(c *gin.Context) {
	var req channelUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.RemoveOwner(c.Request.Context(), middleware.GetToken(c), req.ChannelID, req.UID); err != nil {
		respondError(c, h.logger, "remove owner", err)
		return
	}
	ok(c)
}
