package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
)

// UsageLockedError is returned when a guarded operation runs against a
// locked organization. Handlers map it to 403 with a structured payload.
type UsageLockedError struct {
	LockReason      billing.LockReason
	MembershipState billing.MembershipState
	Message         string
}

// Error implements the error interface
func (e *UsageLockedError) Error() string {
	return e.Message
}

// HTTPStatusCode returns the HTTP status code for this error (403 Forbidden)
func (e *UsageLockedError) HTTPStatusCode() int {
	return http.StatusForbidden
}

// NewUsageLockedError creates a UsageLockedError from a snapshot
func NewUsageLockedError(snapshot billing.BillingSnapshot) *UsageLockedError {
	return &UsageLockedError{
		LockReason:      snapshot.LockReason,
		MembershipState: snapshot.MembershipState,
		Message: fmt.Sprintf("Usage is locked for this workspace: %s",
			snapshot.LockReason),
	}
}

// Clock abstracts time.Now so entitlement decisions are testable at exact
// instants such as the trial window boundary.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time { return time.Now() }

// entitlementCacheKey is the context key for the per-request snapshot cache
type entitlementCacheKey struct{}

// entitlementCache memoizes snapshots for the lifetime of one request so a
// handler chain (gate middleware, guard, handler) resolves at most once.
// The cache is request-scoped on purpose: a process-global cache would
// serve stale lock decisions across requests.
type entitlementCache struct {
	snapshots map[uuid.UUID]billing.BillingSnapshot
}

// WithEntitlementCache returns a context carrying an empty snapshot cache.
// Middleware installs it at the top of the chain.
func WithEntitlementCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, entitlementCacheKey{}, &entitlementCache{
		snapshots: make(map[uuid.UUID]billing.BillingSnapshot),
	})
}

func cacheFromContext(ctx context.Context) *entitlementCache {
	cache, _ := ctx.Value(entitlementCacheKey{}).(*entitlementCache)
	return cache
}

// EntitlementServiceConfig contains configuration for EntitlementService
type EntitlementServiceConfig struct {
	TrialCredits         string  // Default trial credit allowance for provisioning
	TrialDays            int     // Default trial window length
	LowCreditThresholdPc float64 // Sidebar warning threshold
}

// DefaultEntitlementServiceConfig returns default configuration
func DefaultEntitlementServiceConfig() EntitlementServiceConfig {
	return EntitlementServiceConfig{
		TrialCredits:         "120",
		TrialDays:            7,
		LowCreditThresholdPc: billing.DefaultLowCreditThresholdPercent,
	}
}

// EntitlementService resolves billing snapshots and enforces the usage
// guard. It is strictly read-only over billing state.
type EntitlementService struct {
	accountRepo billing.BillingAccountRepository
	logger      *zap.Logger
	clock       Clock
	config      EntitlementServiceConfig
}

// NewEntitlementService creates a new EntitlementService
func NewEntitlementService(
	accountRepo billing.BillingAccountRepository,
	logger *zap.Logger,
	clock Clock,
	config EntitlementServiceConfig,
) *EntitlementService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &EntitlementService{
		accountRepo: accountRepo,
		logger:      logger,
		clock:       clock,
		config:      config,
	}
}

// ResolveUsageEntitlement returns the authoritative entitlement snapshot
// for an organization. The result is memoized in the request context when a
// cache has been installed.
//
// Resolution is deliberately fail-open: an organization whose billing row
// does not exist yet, whose backing table has not been migrated, or whose
// lookup failed for infrastructure reasons is treated as a fresh trial
// rather than locked out. Billing must never take the product down.
func (s *EntitlementService) ResolveUsageEntitlement(ctx context.Context, organizationID uuid.UUID) (billing.BillingSnapshot, error) {
	if organizationID == uuid.Nil {
		return billing.BillingSnapshot{}, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}

	if cache := cacheFromContext(ctx); cache != nil {
		if snap, ok := cache.snapshots[organizationID]; ok {
			return snap, nil
		}
	}

	snap := s.resolve(ctx, organizationID)

	if cache := cacheFromContext(ctx); cache != nil {
		cache.snapshots[organizationID] = snap
	}
	return snap, nil
}

func (s *EntitlementService) resolve(ctx context.Context, organizationID uuid.UUID) billing.BillingSnapshot {
	now := s.clock.Now()

	account, err := s.accountRepo.FindByOrganization(ctx, organizationID)
	switch {
	case err == nil:
		return billing.BuildSnapshot(account, now)

	case errors.Is(err, shared.ErrNotFound):
		// The organization has no billing row yet. Provisioning is
		// asynchronous, so grant a default trial view until it lands.
		s.logger.Debug("No billing account, defaulting to trial entitlement",
			zap.String("organization_id", organizationID.String()))
		return s.permissiveSnapshot(now)

	case errors.Is(err, shared.ErrStoreUnprovisioned):
		// The table itself is missing, typical of a fresh environment
		// where billing migrations have not run. Same fail-open answer,
		// but logged louder because it is an operational signal.
		s.logger.Warn("Billing store not provisioned, defaulting to trial entitlement",
			zap.String("organization_id", organizationID.String()))
		return s.permissiveSnapshot(now)

	default:
		s.logger.Error("Failed to resolve billing account, failing open",
			zap.String("organization_id", organizationID.String()),
			zap.Error(err))
		return s.permissiveSnapshot(now)
	}
}

// permissiveSnapshot is the fail-open entitlement: a synthetic trial view
// with the default allowance and a window starting now.
func (s *EntitlementService) permissiveSnapshot(now time.Time) billing.BillingSnapshot {
	account := &billing.BillingAccount{
		State:            billing.MembershipTrialActive,
		TrialCreditLimit: s.trialCredits(),
	}
	started := now
	ends := now.AddDate(0, 0, s.trialDays())
	account.TrialStartedAt = &started
	account.TrialEndsAt = &ends
	return billing.BuildSnapshot(account, now)
}

// trialCredits parses the configured trial allowance. A missing, garbage or
// non-positive value falls back to the default: a zero-credit synthetic
// trial would read as exhausted and quietly turn fail-open into fail-closed.
func (s *EntitlementService) trialCredits() decimal.Decimal {
	if d, err := decimal.NewFromString(s.config.TrialCredits); err == nil && d.IsPositive() {
		return d
	}
	d, _ := decimal.NewFromString(DefaultEntitlementServiceConfig().TrialCredits)
	return d
}

func (s *EntitlementService) trialDays() int {
	if s.config.TrialDays > 0 {
		return s.config.TrialDays
	}
	return DefaultEntitlementServiceConfig().TrialDays
}

// AssertUsageAllowed resolves the snapshot and returns a UsageLockedError
// when usage is not permitted. Guarded operations call this as their first
// step.
func (s *EntitlementService) AssertUsageAllowed(ctx context.Context, organizationID uuid.UUID) (billing.BillingSnapshot, error) {
	snap, err := s.ResolveUsageEntitlement(ctx, organizationID)
	if err != nil {
		return billing.BillingSnapshot{}, err
	}
	if !snap.IsUsageAllowed {
		return snap, NewUsageLockedError(snap)
	}
	return snap, nil
}

// ResolveWorkspaceAccess derives the gate decision for an organization.
func (s *EntitlementService) ResolveWorkspaceAccess(ctx context.Context, organizationID uuid.UUID) (billing.WorkspaceAccessState, error) {
	snap, err := s.ResolveUsageEntitlement(ctx, organizationID)
	if err != nil {
		return billing.WorkspaceAccessState{}, err
	}
	return billing.ResolveWorkspaceAccess(snap), nil
}

// ResolveNavigation derives the sidebar items for an organization.
func (s *EntitlementService) ResolveNavigation(ctx context.Context, organizationID uuid.UUID) ([]billing.NavItem, error) {
	access, err := s.ResolveWorkspaceAccess(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return billing.ResolveNavigation(access), nil
}

// ResolveSidebarProgress derives the sidebar credit numbers for an
// organization. Missing accounts yield the full synthetic-trial bar, same
// fail-open stance as the snapshot path.
func (s *EntitlementService) ResolveSidebarProgress(ctx context.Context, organizationID uuid.UUID) (billing.SidebarProgress, error) {
	snap, err := s.ResolveUsageEntitlement(ctx, organizationID)
	if err != nil {
		return billing.SidebarProgress{}, err
	}
	return billing.CalculateSidebarProgress(billing.SidebarProgressInput{
		State:              snap.MembershipState,
		TrialCreditLimit:   snap.Trial.Credits.Limit,
		TrialCreditUsed:    snap.Trial.Credits.Used,
		PackageCreditLimit: snap.Package.Credits.Limit,
		PackageCreditUsed:  snap.Package.Credits.Used,
		TopupBalance:       snap.TopupBalance,
		ThresholdPercent:   s.config.LowCreditThresholdPc,
	}), nil
}
