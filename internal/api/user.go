package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/photo"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves profiles, profile edits and statistics.
type UserHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewUserHandler(svc *service.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type profileQuery struct {
	UID int `form:"uId"`
}

type setNameRequest struct {
	NameFirst string `json:"nameFirst"`
	NameLast  string `json:"nameLast"`
}

type setEmailRequest struct {
	Email string `json:"email"`
}

type setHandleRequest struct {
	HandleStr string `json:"handleStr"`
}

type uploadPhotoRequest struct {
	ImgURL string `json:"imgUrl"`
	XStart int    `json:"xStart"`
	YStart int    `json:"yStart"`
	XEnd   int    `json:"xEnd"`
	YEnd   int    `json:"yEnd"`
}

// Profile handles GET /user/profile/v3
func (h *UserHandler) Profile(c *gin.Context) {
	var q profileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.svc.UserProfile(middleware.GetToken(c), q.UID)
	if err != nil {
		respondError(c, h.logger, "user profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// All handles GET /users/all/v2
func (h *UserHandler) All(c *gin.Context) {
	users, err := h.svc.UsersAll(middleware.GetToken(c))
	if err != nil {
		respondError(c, h.logger, "list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SetName handles PUT /user/profile/setname/v2
func (h *UserHandler) SetName(c *gin.Context) {
	var req setNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.SetName(c.Request.Context(), middleware.GetToken(c), req.NameFirst, req.NameLast); err != nil {
		respondError(c, h.logger, "set name", err)
		return
	}
	ok(c)
}

// SetEmail handles PUT /user/profile/setemail/v2
func (h *UserHandler) SetEmail(c *gin.Context) {
	var req setEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.SetEmail(c.Request.Context(), middleware.GetToken(c), req.Email); err != nil {
		respondError(c, h.logger, "set email", err)
		return
	}
	ok(c)
}

// SetHandle handles PUT /user/profile/sethandle/v2
func (h *UserHandler) SetHandle(c *gin.Context) {
	var req setHandleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.SetHandle(c.Request.Context(), middleware.GetToken(c), req.HandleStr); err != nil {
		respondError(c, h.logger, "set handle", err)
		return
	}
	ok(c)
}

// UploadPhoto handles POST /user/profile/uploadphoto/v1
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	var req uploadPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	crop := photo.Crop{XStart: req.XStart, YStart: req.YStart, XEnd: req.XEnd, YEnd: req.YEnd}
	if err := h.svc.UploadPhoto(c.Request.Context(), middleware.GetToken(c), req.ImgURL, crop); err != nil {
		respondError(c, h.logger, "upload photo", err)
		return
	}
	ok(c)
}

// Stats handles GET /user/stats/v1
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.svc.UserStats(middleware.GetToken(c))
	if err != nil {
		respondError(c, h.logger, "user stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userStats": stats})
}

// WorkspaceStats handles GET /users/stats/v1
func (h *UserHandler) WorkspaceStats(c *gin.Context) {
	stats, err := h.svc.UsersStats(middleware.GetToken(c))
	if err != nil {
		respondError(c, h.logger, "workspace stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaceStats": stats})
}
