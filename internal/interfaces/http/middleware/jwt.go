package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leadqual/backend/internal/infrastructure/auth"
)

// JWT context keys
const (
	JWTClaimsKey         = "jwt_claims"
	JWTUserIDKey         = "jwt_user_id"
	JWTOrganizationIDKey = "jwt_organization_id"
	AuthHeaderKey        = "Authorization"
	BearerPrefix         = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/healthz", "/ready", "/api/v1/health"},
	}
}

// JWTAuth returns middleware that validates bearer tokens and stores the
// claims in the request context.
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthWithConfig returns JWT middleware with custom configuration
func JWTAuthWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
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

		header := c.GetHeader(AuthHeaderKey)
		if header == "" || !strings.HasPrefix(header, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_AUTH_MISSING_TOKEN",
					"message": "Authorization header with bearer token is required",
				},
			})
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			code := "ERR_AUTH_INVALID_TOKEN"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = "ERR_AUTH_TOKEN_EXPIRED"
			}
			logger.Debug("Rejected access token",
				zap.String("path", path),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    code,
					"message": "Invalid or expired access token",
				},
			})
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTOrganizationIDKey, claims.OrganizationID)
		c.Next()
	}
}

// GetJWTClaims returns the validated claims stored by JWTAuth, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the user ID claim, or empty string
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTOrganizationID returns the organization ID claim, or empty string
func GetJWTOrganizationID(c *gin.Context) string {
	return c.GetString(JWTOrganizationIDKey)
}
