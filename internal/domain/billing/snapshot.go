package billing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TrialSnapshot is the trial-pool slice of a billing snapshot.
type TrialSnapshot struct {
	Credits       CreditBucket `json:"credits"`
	RemainingDays int          `json:"remaining_days"`
	TimeProgress  float64      `json:"time_progress"`
}

// PackageSnapshot is the monthly-package slice of a billing snapshot.
type PackageSnapshot struct {
	Credits CreditBucket `json:"credits"`
}

// BillingSnapshot is a fully-derived, point-in-time view of an account's
// entitlement. It is a pure function of (account, now), never persisted,
// and safe to recompute on every request.
type BillingSnapshot struct {
	MembershipState  MembershipState `json:"membership_state"`
	LockReason       LockReason      `json:"lock_reason"`
	IsUsageAllowed   bool            `json:"is_usage_allowed"`
	IsTopupAllowed   bool            `json:"is_topup_allowed"`
	ActiveCreditPool CreditPool      `json:"active_credit_pool"`
	Trial            TrialSnapshot   `json:"trial"`
	Package          PackageSnapshot `json:"package"`
	TopupBalance     decimal.Decimal `json:"topup_balance"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// BuildSnapshot derives the canonical entitlement view for an account at the
// given instant. The stored advisory lock reason is ignored: multiple lock
// conditions can hold at once, and the precedence below is authoritative.
//
// Precedence, per membership state:
//   - trial_active: time expiry beats remaining credits; then credit balance
//   - trial_exhausted: always subscription_required, whatever is stored
//   - premium_active: package pool before top-up pool; both empty locks
//   - past_due / canceled / admin_locked: the state itself is the reason
func BuildSnapshot(account *BillingAccount, now time.Time) BillingSnapshot {
	trial := account.TrialBucket()
	pkg := account.PackageBucket()
	topup := account.TopupBalance()

	snap := BillingSnapshot{
		MembershipState:  account.State,
		LockReason:       LockReasonNone,
		ActiveCreditPool: CreditPoolNone,
		Trial: TrialSnapshot{
			Credits:       trial,
			RemainingDays: trialRemainingDays(account.TrialEndsAt, now),
			TimeProgress:  trialTimeProgress(account.TrialStartedAt, account.TrialEndsAt, now),
		},
		Package:      PackageSnapshot{Credits: pkg},
		TopupBalance: topup,
		GeneratedAt:  now,
	}

	switch account.State {
	case MembershipTrialActive:
		switch {
		case account.TrialEndsAt == nil || account.IsTrialTimeExpired(now):
			// Time expiry wins even with credits left in the pool.
			snap.LockReason = LockReasonTrialTimeExpired
		case trial.IsExhausted():
			snap.LockReason = LockReasonSubscriptionRequired
		default:
			snap.IsUsageAllowed = true
			snap.ActiveCreditPool = CreditPoolTrial
		}

	case MembershipTrialExhausted:
		snap.LockReason = LockReasonSubscriptionRequired

	case MembershipPremiumActive:
		pool := firstFundedPool(account)
		switch pool {
		case CreditPoolPackage:
			snap.IsUsageAllowed = true
			snap.ActiveCreditPool = CreditPoolPackage
		case CreditPoolTopup:
			snap.IsUsageAllowed = true
			snap.ActiveCreditPool = CreditPoolTopup
			snap.IsTopupAllowed = true
		default:
			snap.LockReason = LockReasonPackageCreditsExhausted
			snap.IsTopupAllowed = true
		}

	case MembershipPastDue:
		snap.LockReason = LockReasonPastDue
	case MembershipCanceled:
		snap.LockReason = LockReasonSubscriptionRequired
	case MembershipAdminLocked:
		snap.LockReason = LockReasonAdminLocked
	default:
		// Unknown states never grant usage.
		snap.LockReason = LockReasonAdminLocked
	}

	return snap
}

// trialRemainingDays is ceil((trialEndsAt-now)/24h) floored at zero.
func trialRemainingDays(trialEndsAt *time.Time, now time.Time) int {
	if trialEndsAt == nil {
		return 0
	}
	left := trialEndsAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// trialTimeProgress is the elapsed share of the trial window in percent,
// pinned to 100 once the window has passed.
func trialTimeProgress(startedAt, endsAt *time.Time, now time.Time) float64 {
	if endsAt == nil {
		return 0
	}
	if !now.Before(*endsAt) {
		return 100
	}
	if startedAt == nil {
		return 0
	}
	total := endsAt.Sub(*startedAt)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(*startedAt)
	return clampPercent(float64(elapsed) / float64(total) * 100)
}
