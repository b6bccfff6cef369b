package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leadqual/backend/internal/domain/shared"
)

// BillingAccount is the aggregate root for an organization's credit state.
// There is exactly one row per organization. Balances are mutated only by
// the external atomic checkout/usage procedure or by administrative action;
// this core reads the counters and derives decisions from them.
type BillingAccount struct {
	shared.BaseAggregateRoot
	OrganizationID uuid.UUID       // Owning organization
	State          MembershipState // Lifecycle stage of the subscription
	StoredLock     LockReason      // Advisory lock reason written out-of-band; may be stale

	// Trial pool
	TrialStartedAt   *time.Time
	TrialEndsAt      *time.Time
	TrialCreditLimit decimal.Decimal
	TrialCreditUsed  decimal.Decimal

	// Monthly package pool
	CurrentPeriodStart        *time.Time
	CurrentPeriodEnd          *time.Time
	MonthlyPackageCreditLimit decimal.Decimal
	MonthlyPackageCreditUsed  decimal.Decimal

	// Top-up pool: an always-on-top purchased balance with no period
	TopupCreditBalance decimal.Decimal

	// Audit fields
	PremiumAssignedAt  *time.Time
	LastManualActionAt *time.Time
}

var _ shared.OrganizationScoped = (*BillingAccount)(nil)

// NewTrialAccount creates a billing account in trial_active with the given
// trial window and credit allowance.
func NewTrialAccount(organizationID uuid.UUID, trialCredits decimal.Decimal, trialDays int) (*BillingAccount, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}
	if trialCredits.IsNegative() {
		return nil, shared.NewDomainError("INVALID_CREDITS", "Trial credit limit cannot be negative")
	}
	if trialDays <= 0 {
		return nil, shared.NewDomainError("INVALID_TRIAL_DAYS", "Trial days must be positive")
	}

	now := time.Now()
	ends := now.AddDate(0, 0, trialDays)
	return &BillingAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrganizationID:    organizationID,
		State:             MembershipTrialActive,
		StoredLock:        LockReasonNone,
		TrialStartedAt:    &now,
		TrialEndsAt:       &ends,
		TrialCreditLimit:  trialCredits,
	}, nil
}

// CreditBucket is a limit/used pair for one credit pool. Remaining is always
// clamped at zero even when the stored used counter transiently overshoots
// the limit.
type CreditBucket struct {
	Limit     decimal.Decimal `json:"limit"`
	Used      decimal.Decimal `json:"used"`
	Remaining decimal.Decimal `json:"remaining"`
}

// NewCreditBucket builds a bucket from raw counters, clamping negatives.
func NewCreditBucket(limit, used decimal.Decimal) CreditBucket {
	if limit.IsNegative() {
		limit = decimal.Zero
	}
	if used.IsNegative() {
		used = decimal.Zero
	}
	remaining := limit.Sub(used)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return CreditBucket{Limit: limit, Used: used, Remaining: remaining}
}

// IsExhausted returns true when no credits remain in the bucket
func (b CreditBucket) IsExhausted() bool {
	return !b.Remaining.IsPositive()
}

// GetOrganizationID returns the owning organization
func (a *BillingAccount) GetOrganizationID() uuid.UUID {
	return a.OrganizationID
}

// TrialBucket returns the trial pool counters as a bucket
func (a *BillingAccount) TrialBucket() CreditBucket {
	return NewCreditBucket(a.TrialCreditLimit, a.TrialCreditUsed)
}

// PackageBucket returns the monthly package counters as a bucket
func (a *BillingAccount) PackageBucket() CreditBucket {
	return NewCreditBucket(a.MonthlyPackageCreditLimit, a.MonthlyPackageCreditUsed)
}

// TopupBalance returns the top-up balance clamped at zero
func (a *BillingAccount) TopupBalance() decimal.Decimal {
	if a.TopupCreditBalance.IsNegative() {
		return decimal.Zero
	}
	return a.TopupCreditBalance
}

// IsTrialTimeExpired reports whether the trial window has elapsed at the
// given instant. The boundary instant itself counts as expired.
func (a *BillingAccount) IsTrialTimeExpired(now time.Time) bool {
	return a.TrialEndsAt != nil && !now.Before(*a.TrialEndsAt)
}
