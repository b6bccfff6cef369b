package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Organization context keys
const (
	OrganizationIDKey     = "organization_id"
	OrganizationHeaderKey = "X-Organization-ID"
)

// OrganizationMiddlewareConfig holds configuration for organization middleware
type OrganizationMiddlewareConfig struct {
	// HeaderEnabled enables X-Organization-ID header extraction as a
	// development fallback
	HeaderEnabled bool
	// SkipPaths are paths that don't require organization context
	SkipPaths []string
	// Required determines if organization context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultOrganizationConfig returns default organization middleware configuration
func DefaultOrganizationConfig() OrganizationMiddlewareConfig {
	return OrganizationMiddlewareConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Required:      true,
	}
}

// OrganizationContext extracts the organization scope for the request.
// Extraction order: JWT claims > X-Organization-ID header.
func OrganizationContext() gin.HandlerFunc {
	return OrganizationContextWithConfig(DefaultOrganizationConfig())
}

// OrganizationContextWithConfig returns organization middleware with custom configuration
func OrganizationContextWithConfig(cfg OrganizationMiddlewareConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		raw := GetJWTOrganizationID(c)
		if raw == "" && cfg.HeaderEnabled {
			raw = c.GetHeader(OrganizationHeaderKey)
		}

		if raw == "" {
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "ERR_ORGANIZATION_REQUIRED",
						"message": "Organization context is required",
					},
				})
				return
			}
			c.Next()
			return
		}

		organizationID, err := uuid.Parse(raw)
		if err != nil {
			logger.Debug("Rejected malformed organization ID",
				zap.String("path", path),
				zap.String("organization_id", raw))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_ORGANIZATION_INVALID",
					"message": "Organization ID must be a valid UUID",
				},
			})
			return
		}

		c.Set(OrganizationIDKey, organizationID)
		c.Next()
	}
}

// GetOrganizationID returns the organization scope set by OrganizationContext
func GetOrganizationID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(OrganizationIDKey); exists {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}
