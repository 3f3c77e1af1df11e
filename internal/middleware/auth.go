package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys for values stored in gin.Context.
const (
	ContextKeyUserID = "user_id"
	ContextKeyToken  = "token"
)

// TokenHeader is the request header carrying the session token.
const TokenHeader = "token"

// TokenResolver maps a session token to the id of its user.
type TokenResolver interface {
	ResolveToken(token string) (int, error)
}

// Token reads the session token from the token header (or the token query
// parameter, for websocket clients that cannot set headers) and stores it
// in the context. When the token is valid the user id is stored as well.
//
// It never aborts: operations check existence of their targets before the
// caller's token, so rejecting here would change which error a client sees.
// Routes that need a user up front add RequireUser.
func Token(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(TokenHeader)
		if token == "" {
			token = c.Query("token")
		}
		c.Set(ContextKeyToken, token)

		if token != "" {
			if uid, err := resolver.ResolveToken(token); err == nil {
				c.Set(ContextKeyUserID, uid)
			}
		}
		c.Next()
	}
}

// RequireUser aborts with 403 unless Token resolved a user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid token",
			})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user id, or 0.
func GetUserID(c *gin.Context) int {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	id, ok := val.(int)
	if !ok {
		return 0
	}
	return id
}

func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
