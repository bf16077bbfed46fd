package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
)

const identityKey = "identity"

// identityMiddleware resolves the caller once per request. Anonymous callers
// pass through; handlers decide whether an identity is required.
func identityMiddleware(provider port.IdentityProvider, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if provider == nil {
			c.Next()
			return
		}

		id, err := provider.Identify(c.Request)
		if err != nil {
			logger.Error("Failed to identify caller", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid identity",
			})
			return
		}
		if id != nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// identityFrom returns the identity set by identityMiddleware, or nil
func identityFrom(c *gin.Context) *entity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*entity.Identity); ok {
			return id
		}
	}
	return nil
}
