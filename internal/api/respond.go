// Package api exposes the workspace service over HTTP. Handlers are thin:
// they bind the request, call one service operation and shape the reply.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/echohub/internal/apperr"
	"go.uber.org/zap"
)

// respondError writes err with the status its kind maps to. Internal
// failures are logged and hidden from the client.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(status, gin.H{"error": op + " failed"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// ok replies with an empty JSON object.
func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}
