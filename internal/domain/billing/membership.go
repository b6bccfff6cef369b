package billing

import "fmt"

// MembershipState represents the top-level lifecycle stage of an
// organization's subscription.
type MembershipState string

const (
	// MembershipTrialActive is a new organization inside its trial window
	MembershipTrialActive MembershipState = "trial_active"

	// MembershipTrialExhausted is a trial that burned through its credits
	MembershipTrialExhausted MembershipState = "trial_exhausted"

	// MembershipPremiumActive is a paying organization with a monthly package
	MembershipPremiumActive MembershipState = "premium_active"

	// MembershipPastDue is a premium organization with a failed renewal
	MembershipPastDue MembershipState = "past_due"

	// MembershipCanceled is an organization that terminated its subscription
	MembershipCanceled MembershipState = "canceled"

	// MembershipAdminLocked is an organization frozen by an operator
	MembershipAdminLocked MembershipState = "admin_locked"
)

// String returns the string representation of MembershipState
func (m MembershipState) String() string {
	return string(m)
}

// IsValid returns true if the membership state is valid
func (m MembershipState) IsValid() bool {
	switch m {
	case MembershipTrialActive, MembershipTrialExhausted, MembershipPremiumActive,
		MembershipPastDue, MembershipCanceled, MembershipAdminLocked:
		return true
	}
	return false
}

// IsTrial returns true for the two trial lifecycle stages
func (m MembershipState) IsTrial() bool {
	return m == MembershipTrialActive || m == MembershipTrialExhausted
}

// IsTerminal returns true for states where usage can never be allowed
// regardless of credit balances
func (m MembershipState) IsTerminal() bool {
	switch m {
	case MembershipPastDue, MembershipCanceled, MembershipAdminLocked:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the membership state
func (m MembershipState) DisplayName() string {
	switch m {
	case MembershipTrialActive:
		return "Trial"
	case MembershipTrialExhausted:
		return "Trial Ended"
	case MembershipPremiumActive:
		return "Premium"
	case MembershipPastDue:
		return "Past Due"
	case MembershipCanceled:
		return "Canceled"
	case MembershipAdminLocked:
		return "Locked"
	default:
		return string(m)
	}
}

// ParseMembershipState parses a string into a MembershipState
func ParseMembershipState(s string) (MembershipState, error) {
	m := MembershipState(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid membership state: %s", s)
	}
	return m, nil
}

// AllMembershipStates returns all valid membership states
func AllMembershipStates() []MembershipState {
	return []MembershipState{
		MembershipTrialActive,
		MembershipTrialExhausted,
		MembershipPremiumActive,
		MembershipPastDue,
		MembershipCanceled,
		MembershipAdminLocked,
	}
}

// LockReason is the canonical, recomputed explanation for why usage is
// currently disallowed. The stored value on a BillingAccount is advisory
// only; the snapshot builder always derives the authoritative reason.
type LockReason string

const (
	// LockReasonNone means usage is not locked
	LockReasonNone LockReason = "none"

	// LockReasonSubscriptionRequired means the trial is over and a paid plan is needed
	LockReasonSubscriptionRequired LockReason = "subscription_required"

	// LockReasonTrialTimeExpired means the trial window elapsed
	LockReasonTrialTimeExpired LockReason = "trial_time_expired"

	// LockReasonPackageCreditsExhausted means the monthly package and top-up pools are empty
	LockReasonPackageCreditsExhausted LockReason = "package_credits_exhausted"

	// LockReasonPastDue means the last renewal payment failed
	LockReasonPastDue LockReason = "past_due"

	// LockReasonAdminLocked means an operator froze the workspace
	LockReasonAdminLocked LockReason = "admin_locked"
)

// String returns the string representation of LockReason
func (r LockReason) String() string {
	return string(r)
}

// IsValid returns true if the lock reason is valid
func (r LockReason) IsValid() bool {
	switch r {
	case LockReasonNone, LockReasonSubscriptionRequired, LockReasonTrialTimeExpired,
		LockReasonPackageCreditsExhausted, LockReasonPastDue, LockReasonAdminLocked:
		return true
	}
	return false
}

// IsLocked returns true for any reason other than none
func (r LockReason) IsLocked() bool {
	return r != LockReasonNone && r != ""
}

// ParseLockReason parses a string into a LockReason. Unknown or empty
// values normalize to none because the stored column is advisory and may
// be stale or garbage.
func ParseLockReason(s string) LockReason {
	r := LockReason(s)
	if !r.IsValid() {
		return LockReasonNone
	}
	return r
}

// CreditPool is one of the independent credit buckets that can fund usage.
type CreditPool string

const (
	// CreditPoolTrial is the one-shot trial allowance
	CreditPoolTrial CreditPool = "trial_pool"

	// CreditPoolPackage is the monthly package allowance that resets per period
	CreditPoolPackage CreditPool = "package_pool"

	// CreditPoolTopup is the always-on-top purchased balance
	CreditPoolTopup CreditPool = "topup_pool"

	// CreditPoolNone marks a snapshot with no pool able to fund usage
	CreditPoolNone CreditPool = ""
)

// String returns the string representation of CreditPool
func (p CreditPool) String() string {
	return string(p)
}

// IsValid returns true if the credit pool is valid
func (p CreditPool) IsValid() bool {
	switch p {
	case CreditPoolTrial, CreditPoolPackage, CreditPoolTopup:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the credit pool
func (p CreditPool) DisplayName() string {
	switch p {
	case CreditPoolTrial:
		return "Trial Credits"
	case CreditPoolPackage:
		return "Monthly Package"
	case CreditPoolTopup:
		return "Top-up Balance"
	default:
		return string(p)
	}
}
