package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

// AuthHandler serves registration, login and password reset. Only logout
// needs a token.
type AuthHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *service.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	NameFirst string `json:"nameFirst"`
	NameLast  string `json:"nameLast"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	ResetCode   string `json:"resetCode"`
	NewPassword string `json:"newPassword"`
}

// Register handles POST /auth/register/v3
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.NameFirst, req.NameLast)
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Login handles POST /auth/login/v3
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Logout handles POST /auth/logout/v2
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.GetToken(c)); err != nil {
		respondError(c, h.logger, "logout", err)
		return
	}
	ok(c)
}

// RequestReset handles POST /auth/passwordreset/request/v1. It replies
// the same way whether or not the email is registered.
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, "password reset request", err)
		return
	}
	ok(c)
}

// Reset handles POST /auth/passwordreset/reset/v1
func (h *AuthHandler) Reset(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.ResetCode, req.NewPassword); err != nil {
		respondError(c, h.logger, "password reset", err)
		return
	}
	ok(c)
}
