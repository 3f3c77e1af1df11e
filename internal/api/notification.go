package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/realtime"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	svc      *service.Service
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewNotificationHandler(svc *service.Service, hub *realtime.Hub, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// List handles GET /notifications/get/v1
func (h *NotificationHandler) List(c *gin.Context) {
	notes, err := h.svc.Notifications(middleware.GetToken(c))
	if err != nil {
		respondError(c, h.logger, "notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}

// Stream handles GET /notifications/ws/v1. The route requires a resolved
// user; the connection lives until the client closes it or the session
// ends.
func (h *NotificationHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn, middleware.GetUserID(c), middleware.GetToken(c))
}
