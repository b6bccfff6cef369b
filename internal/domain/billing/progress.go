package billing

import "github.com/shopspring/decimal"

// DefaultLowCreditThresholdPercent is the progress level below which the
// sidebar shows a low-credit warning.
const DefaultLowCreditThresholdPercent = 10.0

// SidebarProgress is the set of numbers the workspace sidebar renders:
// an overall remaining-credit percentage, a two-segment split for the bar,
// and the low-credit warning flag.
type SidebarProgress struct {
	Percent          float64 `json:"percent"`
	PackagePercent   float64 `json:"package_percent"`
	TopupPercent     float64 `json:"topup_percent"`
	LowCreditWarning bool    `json:"low_credit_warning"`
}

// SidebarProgressInput carries the same counters a snapshot is built from.
type SidebarProgressInput struct {
	State              MembershipState
	TrialCreditLimit   decimal.Decimal
	TrialCreditUsed    decimal.Decimal
	PackageCreditLimit decimal.Decimal
	PackageCreditUsed  decimal.Decimal
	TopupBalance       decimal.Decimal
	// ThresholdPercent overrides the low-credit threshold when positive.
	ThresholdPercent float64
}

// CalculateSidebarProgress turns raw account counters into sidebar numbers.
// Trial states render a single package-style segment from the trial pool;
// premium blends remaining package credits and top-up balance into one
// percentage and splits the bar proportionally between the two pools.
func CalculateSidebarProgress(in SidebarProgressInput) SidebarProgress {
	threshold := in.ThresholdPercent
	if threshold <= 0 {
		threshold = DefaultLowCreditThresholdPercent
	}

	var out SidebarProgress
	switch {
	case in.State.IsTrial():
		trial := NewCreditBucket(in.TrialCreditLimit, in.TrialCreditUsed)
		out.Percent = remainingPercent(trial.Remaining, trial.Limit)
		out.PackagePercent = out.Percent
	case in.State == MembershipPremiumActive:
		pkg := NewCreditBucket(in.PackageCreditLimit, in.PackageCreditUsed)
		topup := in.TopupBalance
		if topup.IsNegative() {
			topup = decimal.Zero
		}
		totalRemaining := pkg.Remaining.Add(topup)
		totalCapacity := pkg.Limit.Add(topup)
		out.Percent = remainingPercent(totalRemaining, totalCapacity)
		out.PackagePercent, out.TopupPercent = splitSegments(out.Percent, pkg.Remaining, topup)
	default:
		// Locked states render an empty bar.
	}

	out.LowCreditWarning = IsLowCreditWarningVisible(out.Percent, threshold)
	return out
}

// IsLowCreditWarningVisible is true only strictly inside (0, threshold):
// exactly zero is a lock state, not a warning, and exactly at the threshold
// the bar is still considered healthy.
func IsLowCreditWarningVisible(progress, threshold float64) bool {
	return progress > 0 && progress < threshold
}

// remainingPercent is remaining/capacity as a clamped percentage
func remainingPercent(remaining, capacity decimal.Decimal) float64 {
	if !capacity.IsPositive() {
		return 0
	}
	p, _ := remaining.Div(capacity).Mul(decimal.NewFromInt(100)).Float64()
	return clampPercent(p)
}

// splitSegments divides an overall percentage proportionally between the
// remaining package credits and the remaining top-up balance. Both pools
// empty yields {0,0}.
func splitSegments(overall float64, pkgRemaining, topupRemaining decimal.Decimal) (float64, float64) {
	total := pkgRemaining.Add(topupRemaining)
	if !total.IsPositive() {
		return 0, 0
	}
	pkgShare, _ := pkgRemaining.Div(total).Float64()
	topupShare, _ := topupRemaining.Div(total).Float64()
	return overall * pkgShare, overall * topupShare
}
