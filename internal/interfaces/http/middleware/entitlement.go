package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/leadqual/backend/internal/application/billing"
	"github.com/leadqual/backend/internal/domain/billing"
)

// EntitlementCache installs a request-scoped snapshot cache so the gate,
// guard and handlers resolve the billing snapshot at most once per request.
func EntitlementCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(appbilling.WithEntitlementCache(c.Request.Context()))
		c.Next()
	}
}

// WorkspaceGateConfig holds configuration for the workspace gate
type WorkspaceGateConfig struct {
	// Entitlement resolves snapshots; required
	Entitlement *appbilling.EntitlementService
	// PlansPath is the workspace path the gate redirects locked members to
	PlansPath string
	// BypassHeader skips the gate when present; used by internal tooling
	BypassHeader string
	// Logger for middleware logging
	Logger *zap.Logger
}

// WorkspaceGate redirects locked organizations away from workspace pages.
// Billing-only paths stay reachable so a locked organization can recover
// itself, and the target of the redirect carries the lock reason for the
// plans page to display.
func WorkspaceGate(cfg WorkspaceGateConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	plansPath := cfg.PlansPath
	if plansPath == "" {
		plansPath = "/settings/plans"
	}

	return func(c *gin.Context) {
		if cfg.BypassHeader != "" && c.GetHeader(cfg.BypassHeader) != "" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if billing.IsBillingOnlyPath(path) || strings.HasPrefix(path, plansPath) {
			c.Next()
			return
		}

		organizationID, ok := GetOrganizationID(c)
		if !ok {
			c.Next()
			return
		}

		access, err := cfg.Entitlement.ResolveWorkspaceAccess(c.Request.Context(), organizationID)
		if err != nil {
			// The gate never takes the workspace down on its own failures.
			logger.Error("Workspace gate failed to resolve access, allowing through",
				zap.String("organization_id", organizationID.String()),
				zap.Error(err))
			c.Next()
			return
		}

		if !access.IsLocked {
			c.Next()
			return
		}

		c.Redirect(http.StatusTemporaryRedirect,
			billing.LockedRedirectTarget(plansPath, access.LockReason))
		c.Abort()
	}
}

// UsageGuard blocks usage-consuming operations for locked organizations
// with a structured 403. Unlike the gate it never redirects; API clients
// get a machine-readable lock reason instead.
func UsageGuard(entitlement *appbilling.EntitlementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		organizationID, ok := GetOrganizationID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_ORGANIZATION_REQUIRED",
					"message": "Organization context is required",
				},
			})
			return
		}

		if _, err := entitlement.AssertUsageAllowed(c.Request.Context(), organizationID); err != nil {
			var locked *appbilling.UsageLockedError
			if errors.As(err, &locked) {
				c.AbortWithStatusJSON(locked.HTTPStatusCode(), gin.H{
					"success": false,
					"error": gin.H{
						"code":             "ERR_USAGE_LOCKED",
						"message":          locked.Message,
						"lock_reason":      locked.LockReason.String(),
						"membership_state": locked.MembershipState.String(),
					},
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_INTERNAL",
					"message": "Failed to resolve usage entitlement",
				},
			})
			return
		}
		c.Next()
	}
}
