package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/middleware"
	"github.com/lalith-99/echohub/internal/realtime"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

// RouterDeps is everything NewRouter wires into the routes.
type RouterDeps struct {
	Service *service.Service
	Hub     *realtime.Hub
	Logger  *zap.Logger

	// PhotoDir is served under /pfps when set.
	PhotoDir string

	// AllowOrigins restricts CORS. Empty allows any origin.
	AllowOrigins []string

	// Health reports whether the snapshot backend is reachable. Nil means
	// always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	svc := deps.Service

	corsCfg := cors.DefaultConfig()
	if len(deps.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = deps.AllowOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, middleware.TokenHeader)

	r := gin.New()
	r.Use(gin.Recovery(), cors.New(corsCfg), middleware.Token(svc), middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.DELETE("/clear/v1", func(c *gin.Context) {
		svc.Clear(c.Request.Context())
		ok(c)
	})

	if deps.PhotoDir != "" {
		r.Static("/pfps", deps.PhotoDir)
	}

	authH := NewAuthHandler(svc, logger)
	r.POST("/auth/register/v3", authH.Register)
	r.POST("/auth/login/v3", authH.Login)
	r.POST("/auth/logout/v2", authH.Logout)
	r.POST("/auth/passwordreset/request/v1", authH.RequestReset)
	r.POST("/auth/passwordreset/reset/v1", authH.Reset)

	channelH := NewChannelHandler(svc, logger)
	r.POST("/channels/create/v3", channelH.Create)
	r.GET("/channels/list/v3", channelH.List)
	r.GET("/channels/listall/v3", channelH.ListAll)
	r.GET("/channel/details/v3", channelH.Details)
	r.GET("/channel/messages/v3", channelH.Messages)

	memberH := NewMembershipHandler(svc, logger)
	r.POST("/channel/join/v3", memberH.Join)
	r.POST("/channel/invite/v3", memberH.Invite)
	r.POST("/channel/leave/v2", memberH.Leave)
	r.POST("/channel/addowner/v2", memberH.AddOwner)
	r.POST("/channel/removeowner/v2", memberH.RemoveOwner)

	dmH := NewDMHandler(svc, logger)
	r.POST("/dm/create/v2", dmH.Create)
	r.GET("/dm/list/v2", dmH.List)
	r.GET("/dm/details/v2", dmH.Details)
	r.POST("/dm/leave/v2", dmH.Leave)
	r.DELETE("/dm/remove/v2", dmH.Remove)
	r.GET("/dm/messages/v2", dmH.Messages)

	msgH := NewMessageHandler(svc, logger)
	r.POST("/message/send/v2", msgH.Send)
	r.POST("/message/senddm/v2", msgH.SendDM)
	r.POST("/message/sendlater/v1", msgH.SendLater)
	r.POST("/message/sendlaterdm/v1", msgH.SendLaterDM)
	r.PUT("/message/edit/v2", msgH.Edit)
	r.DELETE("/message/remove/v2", msgH.Remove)
	r.POST("/message/share/v1", msgH.Share)
	r.POST("/message/pin/v1", msgH.Pin)
	r.POST("/message/unpin/v1", msgH.Unpin)
	r.POST("/message/react/v1", msgH.React)
	r.POST("/message/unreact/v1", msgH.Unreact)
	r.GET("/search/v1", msgH.Search)

	standupH := NewStandupHandler(svc, logger)
	r.POST("/standup/start/v1", standupH.Start)
	r.GET("/standup/active/v1", standupH.Active)
	r.POST("/standup/send/v1", standupH.Send)

	userH := NewUserHandler(svc, logger)
	r.GET("/user/profile/v3", userH.Profile)
	r.PUT("/user/profile/setname/v2", userH.SetName)
	r.PUT("/user/profile/setemail/v2", userH.SetEmail)
	r.PUT("/user/profile/sethandle/v2", userH.SetHandle)
	r.POST("/user/profile/uploadphoto/v1", userH.UploadPhoto)
	r.GET("/users/all/v2", userH.All)
	r.GET("/user/stats/v1", userH.Stats)
	r.GET("/users/stats/v1", userH.WorkspaceStats)

	notifH := NewNotificationHandler(svc, deps.Hub, logger)
	r.GET("/notifications/get/v1", notifH.List)
	if deps.Hub != nil {
		r.GET("/notifications/ws/v1", middleware.RequireUser(), notifH.Stream)
	}

	return r
}
