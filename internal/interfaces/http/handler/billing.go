package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appbilling "github.com/leadqual/backend/internal/application/billing"
	"github.com/leadqual/backend/internal/domain/billing"
)

// BillingHandler handles billing and entitlement HTTP requests
type BillingHandler struct {
	BaseHandler
	entitlement *appbilling.EntitlementService
	ledger      *appbilling.LedgerService
	checkout    *appbilling.CheckoutService
	plansPath   string
}

// NewBillingHandler creates a new billing handler. plansPath is where locked
// workspaces get redirected; empty falls back to the default plans page.
func NewBillingHandler(
	entitlement *appbilling.EntitlementService,
	ledger *appbilling.LedgerService,
	checkout *appbilling.CheckoutService,
	plansPath string,
) *BillingHandler {
	if plansPath == "" {
		plansPath = "/settings/plans"
	}
	return &BillingHandler{
		entitlement: entitlement,
		ledger:      ledger,
		checkout:    checkout,
		plansPath:   plansPath,
	}
}

// ============================================================================
// Request/Response DTOs
// ============================================================================

// EstimateUsageCostRequest carries token counts for a cost estimate
//
//	@Description	Token usage rows to price
type EstimateUsageCostRequest struct {
	Rows []TokenUsageRow `json:"rows" binding:"required,min=1,dive"`
}

// TokenUsageRow is a single token usage row to price
type TokenUsageRow struct {
	InputTokens  int64 `json:"input_tokens" binding:"min=0" example:"1200"`
	OutputTokens int64 `json:"output_tokens" binding:"min=0" example:"450"`
}

// EstimateUsageCostResponse is the priced result of an estimate request
//
//	@Description	Credit cost per row and in total
type EstimateUsageCostResponse struct {
	RowCosts  []string `json:"row_costs" example:"0.1,0.2"`
	TotalCost string   `json:"total_cost" example:"0.3"`
}

// SubscribeRequest starts a subscription checkout
type SubscribeRequest struct {
	PlanID string `json:"plan_id" binding:"required,max=100" example:"premium-monthly"`
}

// TopupRequest starts a top-up checkout
type TopupRequest struct {
	PackageID string `json:"package_id" binding:"required,max=100" example:"topup-500"`
}

// CheckoutResponse reports the outcome of a checkout attempt
//
//	@Description	Result of a subscription or top-up checkout
type CheckoutResponse struct {
	Succeeded bool   `json:"succeeded" example:"true"`
	Status    string `json:"status" example:"success"`
	Reason    string `json:"reason,omitempty" example:"payment_declined"`
}

// WorkspaceAccessResponse reports lock state and the allowed surface.
// PathAllowed and RedirectTarget are only populated when the request names
// a workspace path to evaluate.
//
//	@Description	Workspace access state for the current organization
type WorkspaceAccessResponse struct {
	IsLocked       bool   `json:"is_locked" example:"false"`
	Mode           string `json:"mode" example:"full"`
	LockReason     string `json:"lock_reason" example:"none"`
	PathAllowed    *bool  `json:"path_allowed,omitempty" example:"false"`
	RedirectTarget string `json:"redirect_target,omitempty" example:"/settings/plans?locked=1&reason=past_due"`
}

// NavigationResponse is the sidebar navigation resolved against the lock
//
//	@Description	Sidebar items adjusted for the current access state
type NavigationResponse struct {
	Items []billing.NavItem `json:"items"`
}

// ============================================================================
// Handlers
// ============================================================================

// GetSnapshot godoc
//
//	@ID				getBillingSnapshot
//	@Summary		Get the current entitlement snapshot
//	@Description	Get the authoritative billing snapshot for the current organization: membership state, lock reason, credit pools and top-up balance
//	@Tags			billing
//	@Produce		json
//	@Success		200	{object}	APIResponse[billing.BillingSnapshot]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/snapshot [get]
func (h *BillingHandler) GetSnapshot(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization ID not found in context")
		return
	}

	snapshot, err := h.entitlement.ResolveUsageEntitlement(c.Request.Context(), organizationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, snapshot)
}

// GetLedger godoc
//
//	@ID				getCreditLedger
//	@Summary		Get recent credit ledger entries
//	@Description	Get the most recent credit ledger entries for the current organization, newest first
//	@Tags			billing
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries to return (1-100)"	default(15)
//	@Success		200		{object}	APIResponse[appbilling.LedgerView]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/ledger [get]
func (h *BillingHandler) GetLedger(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization ID not found in context")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "limit must be an integer")
			return
		}
		limit = parsed
	}

	view, err := h.ledger.GetLedgerHistory(c.Request.Context(), organizationID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// GetProgress godoc
//
//	@ID				getSidebarProgress
//	@Summary		Get the sidebar credit progress bar
//	@Description	Get the credit progress segments and low-credit warning flag for the sidebar widget
//	@Tags			billing
//	@Produce		json
//	@Success		200	{object}	APIResponse[billing.SidebarProgress]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/progress [get]
func (h *BillingHandler) GetProgress(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization ID not found in context")
		return
	}

	progress, err := h.entitlement.ResolveSidebarProgress(c.Request.Context(), organizationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, progress)
}

// GetAccess godoc
//
//	@ID				getWorkspaceAccess
//	@Summary		Get the workspace access decision
//	@Description	Get the lock state and allowed surface for the current organization. When a path is given, also report whether that path stays reachable and where a locked workspace gets redirected.
//	@Tags			billing
//	@Produce		json
//	@Param			path	query		string	false	"Workspace-relative path to evaluate"
//	@Success		200	{object}	APIResponse[WorkspaceAccessResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/access [get]
func (h *BillingHandler) GetAccess(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization ID not found in context")
		return
	}

	access, err := h.entitlement.ResolveWorkspaceAccess(c.Request.Context(), organizationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := WorkspaceAccessResponse{
		IsLocked:   access.IsLocked,
		Mode:       access.Mode.String(),
		LockReason: access.LockReason.String(),
	}
	if path, ok := c.GetQuery("path"); ok {
		allowed := !access.IsLocked || billing.IsBillingOnlyPath(path)
		resp.PathAllowed = &allowed
		if !allowed {
			resp.RedirectTarget = billing.LockedRedirectTarget(h.plansPath, access.LockReason)
		}
	}
	h.Success(c, resp)
}

// GetNavigation godoc
//
//	@ID				getWorkspaceNavigation
//	@Summary		Get the sidebar navigation
//	@Description	Get the sidebar items resolved against the current lock state. Locked workspaces keep only the billing surface enabled and the settings entry points at the plans page.
//	@Tags			billing
//	@Produce		json
//	@Success		200	{object}	APIResponse[NavigationResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/navigation [get]
func (h *BillingHandler) GetNavigation(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization ID not found in context")
		return
	}

	access, err := h.entitlement.ResolveWorkspaceAccess(c.Request.Context(), organizationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, NavigationResponse{Items: billing.ResolveNavigation(access)})
}

// EstimateCost godoc
//
//	@ID				estimateUsageCost
//	@Summary		Estimate the credit cost of token usage
//	@Description	Price one or more token usage rows without consuming credits. Each row is priced independently and the costs are summed.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		EstimateUsageCostRequest	true	"Token usage rows"
//	@Success		200		{object}	APIResponse[EstimateUsageCostResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/estimate [post]
func (h *BillingHandler) EstimateCost(c *gin.Context) {
	var req EstimateUsageCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid estimate request: "+err.Error())
		return
	}

	rows := make([]billing.TokenUsage, 0, len(req.Rows))
	rowCosts := make([]string, 0, len(req.Rows))
	for _, row := range req.Rows {
		usage := billing.TokenUsage{
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
		}
		rows = append(rows, usage)
		rowCosts = append(rowCosts, billing.UsageCreditCost(usage.InputTokens, usage.OutputTokens).String())
	}

	h.Success(c, EstimateUsageCostResponse{
		RowCosts:  rowCosts,
		TotalCost: billing.SumUsageCosts(rows).String(),
	})
}

// Subscribe godoc
//
//	@ID				subscribeToPlan
//	@Summary		Subscribe to a premium plan
//	@Description	Relay a subscription checkout to the billing processor. Balance mutation happens atomically on the processor side.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SubscribeRequest	true	"Plan to subscribe to"
//	@Success		200		{object}	APIResponse[CheckoutResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/checkout/subscribe [post]
func (h *BillingHandler) Subscribe(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization ID not found in context")
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid subscribe request: "+err.Error())
		return
	}

	outcome, err := h.checkout.Subscribe(c.Request.Context(), organizationID, req.PlanID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CheckoutResponse{
		Succeeded: outcome.Succeeded,
		Status:    outcome.Status,
		Reason:    outcome.Reason,
	})
}

// Topup godoc
//
//	@ID				purchaseTopup
//	@Summary		Purchase a top-up credit package
//	@Description	Relay a top-up checkout to the billing processor. Only premium organizations whose monthly package is exhausted may top up.
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TopupRequest	true	"Top-up package to purchase"
//	@Success		200		{object}	APIResponse[CheckoutResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/checkout/topup [post]
func (h *BillingHandler) Topup(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization ID not found in context")
		return
	}

	var req TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid top-up request: "+err.Error())
		return
	}

	outcome, err := h.checkout.Topup(c.Request.Context(), organizationID, req.PackageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CheckoutResponse{
		Succeeded: outcome.Succeeded,
		Status:    outcome.Status,
		Reason:    outcome.Reason,
	})
}

// RegisterRoutes registers all billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	routes := rg.Group("/billing")
	{
		routes.GET("/snapshot", h.GetSnapshot)
		routes.GET("/ledger", h.GetLedger)
		routes.GET("/progress", h.GetProgress)
		routes.GET("/access", h.GetAccess)
		routes.GET("/navigation", h.GetNavigation)
		routes.POST("/estimate", h.EstimateCost)
		routes.POST("/checkout/subscribe", h.Subscribe)
		routes.POST("/checkout/topup", h.Topup)
	}
}
