package middleware

import (
	"context"
	"strings"

	"github.com/dealerportal/backend/internal/application/portal"
	"github.com/dealerportal/backend/internal/infrastructure/auth"
	"github.com/dealerportal/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session context keys
const (
	WorkspaceKey  = "portal_workspace"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// WorkspaceResolver resolves an access token to its open workspace
type WorkspaceResolver interface {
	Get(ctx context.Context, accessToken string) (*portal.Workspace, error)
}

// SessionAuth requires a bearer access token and attaches the session's
// workspace to the request. The request logger gains the session and user ids.
func SessionAuth(resolver WorkspaceResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			WriteError(c, auth.ErrInvalidToken)
			c.Abort()
			return
		}

		ws, err := resolver.Get(c.Request.Context(), token)
		if err != nil {
			WriteError(c, err)
			c.Abort()
			return
		}

		ctx := logger.WithSessionID(c.Request.Context(), ws.SessionID())
		reqLogger := logger.GetGinLogger(c).With(zap.String("session_id", ws.SessionID()))
		if user := ws.Session.User(); user != nil {
			ctx = logger.WithUserID(ctx, user.ID.String())
			reqLogger = reqLogger.With(zap.String("user_id", user.ID.String()))
		}
		c.Request = c.Request.WithContext(logger.WithContext(ctx, reqLogger))
		c.Set("logger", reqLogger)
		c.Set(WorkspaceKey, ws)
		c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

// GetWorkspace returns the workspace attached by SessionAuth, or nil
func GetWorkspace(c *gin.Context) *portal.Workspace {
	if v, ok := c.Get(WorkspaceKey); ok {
		if ws, ok := v.(*portal.Workspace); ok {
			return ws
		}
	}
	return nil
}
