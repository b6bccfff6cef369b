package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// poolSource pairs a credit pool with the function that reads its remaining
// balance from an account. Pools are evaluated top-down, so the order of
// premiumPoolOrder is the funding precedence for premium accounts: the
// monthly package drains before the top-up balance. Adding a fourth pool
// means appending here, not adding branches.
type poolSource struct {
	Pool      CreditPool
	Remaining func(a *BillingAccount) decimal.Decimal
}

var premiumPoolOrder = []poolSource{
	{CreditPoolPackage, func(a *BillingAccount) decimal.Decimal { return a.PackageBucket().Remaining }},
	{CreditPoolTopup, func(a *BillingAccount) decimal.Decimal { return a.TopupBalance() }},
}

// firstFundedPool walks the premium pool precedence and returns the first
// pool with a positive remaining balance, or CreditPoolNone.
func firstFundedPool(a *BillingAccount) CreditPool {
	for _, src := range premiumPoolOrder {
		if src.Remaining(a).IsPositive() {
			return src.Pool
		}
	}
	return CreditPoolNone
}

// IsUsageAllowed is the low-level entitlement predicate. It answers whether
// paid usage is permitted given the membership state, pool balances and the
// current instant. The snapshot builder reproduces this logic with a lock
// reason attached; the predicate exists so policy can be tested in isolation.
func IsUsageAllowed(
	state MembershipState,
	remainingTrialCredits decimal.Decimal,
	trialEndsAt *time.Time,
	now time.Time,
	remainingPackageCredits decimal.Decimal,
	topupCredits decimal.Decimal,
) bool {
	switch state {
	case MembershipAdminLocked, MembershipPastDue, MembershipCanceled:
		return false
	case MembershipTrialActive:
		if trialEndsAt == nil || !now.Before(*trialEndsAt) {
			return false
		}
		return remainingTrialCredits.IsPositive()
	case MembershipTrialExhausted:
		return false
	case MembershipPremiumActive:
		return remainingPackageCredits.IsPositive() || topupCredits.IsPositive()
	}
	return false
}

// IsTopupAllowed reports whether offering a top-up purchase makes sense.
// Top-ups exist only to extend an already-paying account past its monthly
// package; they are never offered during trial or to locked states.
func IsTopupAllowed(state MembershipState, remainingPackageCredits decimal.Decimal) bool {
	return state == MembershipPremiumActive && !remainingPackageCredits.IsPositive()
}

// CalculateCreditProgress returns used/limit as a percentage clamped to
// [0,100]. A non-positive limit yields 0 rather than a division error.
func CalculateCreditProgress(limit, used decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	progress, _ := used.Div(limit).Mul(decimal.NewFromInt(100)).Float64()
	return clampPercent(progress)
}

// clampPercent bounds a percentage to [0,100]
func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
