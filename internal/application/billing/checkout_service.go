package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
)

// CheckoutOutcome is the application-level result of a checkout attempt.
type CheckoutOutcome struct {
	Succeeded bool   `json:"succeeded"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// CheckoutService brokers subscription and top-up purchases to the external
// atomic checkout procedures. It never touches balances itself; all credit
// mutation happens inside the procedures, and this service only validates
// preconditions and interprets the closed result enum.
type CheckoutService struct {
	gateway     billing.CheckoutGateway
	entitlement *EntitlementService
	logger      *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(gateway billing.CheckoutGateway, entitlement *EntitlementService, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		gateway:     gateway,
		entitlement: entitlement,
		logger:      logger,
	}
}

// Subscribe purchases or switches to a subscription plan. Subscribing is
// always reachable, locked or not, because it is the recovery path out of
// every lock state.
func (s *CheckoutService) Subscribe(ctx context.Context, organizationID uuid.UUID, planID string) (*CheckoutOutcome, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan ID cannot be empty")
	}

	result, err := s.gateway.Subscribe(ctx, organizationID, planID)
	if err != nil {
		s.logger.Error("Subscribe checkout call failed",
			zap.String("organization_id", organizationID.String()),
			zap.String("plan_id", planID),
			zap.Error(err))
		return nil, shared.NewDomainError("CHECKOUT_UNAVAILABLE", "Checkout is temporarily unavailable")
	}

	return s.outcomeFromResult(organizationID, "subscribe", result), nil
}

// Topup purchases a top-up credit package. Top-ups are only offered to
// premium organizations whose monthly package is exhausted; the precondition
// is re-checked here so a stale client cannot buy an unusable top-up.
func (s *CheckoutService) Topup(ctx context.Context, organizationID uuid.UUID, packageID string) (*CheckoutOutcome, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return nil, shared.NewDomainError("INVALID_PACKAGE", "Package ID cannot be empty")
	}

	snap, err := s.entitlement.ResolveUsageEntitlement(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if !snap.IsTopupAllowed {
		return &CheckoutOutcome{
			Succeeded: false,
			Status:    string(billing.CheckoutStatusBlocked),
			Reason:    "topup_not_available",
		}, nil
	}

	result, err := s.gateway.Topup(ctx, organizationID, packageID)
	if err != nil {
		s.logger.Error("Topup checkout call failed",
			zap.String("organization_id", organizationID.String()),
			zap.String("package_id", packageID),
			zap.Error(err))
		return nil, shared.NewDomainError("CHECKOUT_UNAVAILABLE", "Checkout is temporarily unavailable")
	}

	return s.outcomeFromResult(organizationID, "topup", result), nil
}

// outcomeFromResult maps the procedure's closed status enum onto an
// application outcome. Unknown statuses are treated as errors, never as
// success.
func (s *CheckoutService) outcomeFromResult(organizationID uuid.UUID, operation string, result billing.CheckoutResult) *CheckoutOutcome {
	if !result.Status.IsValid() {
		s.logger.Error("Checkout returned unknown status",
			zap.String("organization_id", organizationID.String()),
			zap.String("operation", operation),
			zap.String("status", string(result.Status)))
		return &CheckoutOutcome{
			Succeeded: false,
			Status:    string(billing.CheckoutStatusError),
			Reason:    "unknown_status",
		}
	}

	outcome := &CheckoutOutcome{
		Succeeded: result.Status == billing.CheckoutStatusSuccess,
		Status:    string(result.Status),
		Reason:    result.Reason,
	}
	if !outcome.Succeeded {
		s.logger.Info("Checkout did not succeed",
			zap.String("organization_id", organizationID.String()),
			zap.String("operation", operation),
			zap.String("status", outcome.Status),
			zap.String("reason", outcome.Reason))
	}
	return outcome
}
