package middleware

import (
	"net/http"
	"strings"

	"github.com/branchschool/installments/internal/auth"
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/types"
	"github.com/gin-gonic/gin"
)

// GuestAuthenticateMiddleware runs requests as the default tenant and user.
// Only used for public routes such as health checks.
func GuestAuthenticateMiddleware(c *gin.Context) {
	ctx := c.Request.Context()
	ctx = types.SetTenantID(ctx, types.DefaultTenantID)
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// AuthenticateMiddleware authenticates requests with either a configured API
// key or a bearer token signed with the auth secret, and scopes them to the
// tenant and user the credential acts as
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader(cfg.Auth.APIKey.Header); apiKey != "" {
			tenantID, userID, valid := auth.ValidateAPIKey(cfg, apiKey)
			if !valid || tenantID == "" || userID == "" {
				logger.Debugw("invalid api key", "path", c.Request.URL.Path)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
				c.Abort()
				return
			}
			setIdentity(c, tenantID, userID)
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(cfg, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logger.Debugw("failed to validate token", "error", err, "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		setIdentity(c, claims.TenantID, claims.UserID)
	}
}

func setIdentity(c *gin.Context, tenantID, userID string) {
	ctx := c.Request.Context()
	ctx = types.SetTenantID(ctx, tenantID)
	ctx = types.SetUserID(ctx, userID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
