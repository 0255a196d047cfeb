package middleware

import (
	"context"

	"github.com/branchschool/installments/internal/pyroscope"
	"github.com/branchschool/installments/internal/types"
	"github.com/gin-gonic/gin"
)

// PyroscopeMiddleware labels profiles collected while serving a route with
// the caller's tenant. It must run after authentication.
func PyroscopeMiddleware(svc *pyroscope.Service) gin.HandlerFunc {
	if !svc.IsEnabled() {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		labels := pyroscope.RequestLabels(c.Request.Method, c.FullPath(), types.GetTenantID(ctx))
		svc.TagWrapper(ctx, labels, func(context.Context) {
			c.Next()
		})
	}
}
