package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

type DMHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewDMHandler(svc *service.Service, logger *zap.Logger) *DMHandler {
	return &DMHandler{svc: svc, logger: logger}
}

type createDMRequest struct {
	UIDs []int `json:"uIds"`
}

type dmRequest struct {
	DMID int `json:"dmId"`
}

type dmQuery struct {
	DMID int `form:"dmId"`
}

type dmMessagesQuery struct {
	DMID  int `form:"dmId"`
	Start int `form:"start"`
}

// Create handles POST /dm/create/v2
func (h *DMHandler) Create(c *gin.Context) {
	var req createDMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.svc.CreateDM(c.Request.Context(), middleware.GetToken(c), req.UIDs)
	if err != nil {
		respondError(c, h.logger, "create dm", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dmId": id})
}

// List handles GET /dm/list/v2
func (h *DMHandler) List(c *gin.Context) {
	dms, err := h.svc.ListDMs(middleware.GetToken(c))
	if err != nil {
		respondError(c, h.logger, "list dms", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dms": dms})
}

// Details handles GET /dm/details/v2
func (h *DMHandler) Details(c *gin.Context) {
	var q dmQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	details, err := h.svc.DMDetails(middleware.GetToken(c), q.DMID)
	if err != nil {
		respondError(c, h.logger, "dm details", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Leave handles POST /dm/leave/v2
func (h *DMHandler) Leave(c *gin.Context) {
	var req dmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.LeaveDM(c.Request.Context(), middleware.GetToken(c), req.DMID); err != nil {
		respondError(c, h.logger, "leave dm", err)
		return
	}
	ok(c)
}

// Remove handles DELETE /dm/remove/v2?dmId=
func (h *DMHandler) Remove(c *gin.Context) {
	var q dmQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.RemoveDM(c.Request.Context(), middleware.GetToken(c), q.DMID); err != nil {
		respondError(c, h.logger, "remove dm", err)
		return
	}
	ok(c)
}

// Messages handles GET /dm/messages/v2
func (h *DMHandler) Messages(c *gin.Context) {
	var q dmMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.svc.DMMessages(middleware.GetToken(c), q.DMID, q.Start)
	if err != nil {
		respondError(c, h.logger, "dm messages", err)
		return
	}
	c.JSON(http.StatusOK, page)
}
