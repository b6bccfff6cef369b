package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateSidebarProgress(t *testing.T) {
	t.Run("trial renders a single segment", func(t *testing.T) {
		got := CalculateSidebarProgress(SidebarProgressInput{
			State:            MembershipTrialActive,
			TrialCreditLimit: dec("120"),
			TrialCreditUsed:  dec("30"),
		})

		assert.InDelta(t, 75, got.Percent, 0.0001)
		assert.InDelta(t, 75, got.PackagePercent, 0.0001)
		assert.InDelta(t, 0, got.TopupPercent, 0.0001)
		assert.False(t, got.LowCreditWarning)
	})

	t.Run("premium blends package and topup into one percentage", func(t *testing.T) {
		got := CalculateSidebarProgress(SidebarProgressInput{
			State:              MembershipPremiumActive,
			PackageCreditLimit: dec("80"),
			PackageCreditUsed:  dec("40"),
			TopupBalance:       dec("20"),
		})

		// remaining = 40 + 20 over capacity 80 + 20
		assert.InDelta(t, 60, got.Percent, 0.0001)
		assert.InDelta(t, 40, got.PackagePercent, 0.0001)
		assert.InDelta(t, 20, got.TopupPercent, 0.0001)
	})

	t.Run("premium with both pools empty renders zero segments", func(t *testing.T) {
		got := CalculateSidebarProgress(SidebarProgressInput{
			State:              MembershipPremiumActive,
			PackageCreditLimit: dec("80"),
			PackageCreditUsed:  dec("80"),
			TopupBalance:       dec("0"),
		})

		assert.InDelta(t, 0, got.Percent, 0.0001)
		assert.InDelta(t, 0, got.PackagePercent, 0.0001)
		assert.InDelta(t, 0, got.TopupPercent, 0.0001)
		assert.False(t, got.LowCreditWarning, "empty bar is a lock, not a warning")
	})

	t.Run("locked states render an empty bar", func(t *testing.T) {
		for _, state := range []MembershipState{MembershipPastDue, MembershipCanceled, MembershipAdminLocked} {
			got := CalculateSidebarProgress(SidebarProgressInput{
				State:              state,
				PackageCreditLimit: dec("80"),
				PackageCreditUsed:  dec("0"),
				TopupBalance:       dec("50"),
			})
			assert.InDelta(t, 0, got.Percent, 0.0001, "state %s", state)
		}
	})

	t.Run("negative topup balance is treated as zero", func(t *testing.T) {
		got := CalculateSidebarProgress(SidebarProgressInput{
			State:              MembershipPremiumActive,
			PackageCreditLimit: dec("100"),
			PackageCreditUsed:  dec("50"),
			TopupBalance:       dec("-10"),
		})

		assert.InDelta(t, 50, got.Percent, 0.0001)
		assert.InDelta(t, 0, got.TopupPercent, 0.0001)
	})

	t.Run("low balance triggers warning", func(t *testing.T) {
		got := CalculateSidebarProgress(SidebarProgressInput{
			State:            MembershipTrialActive,
			TrialCreditLimit: dec("100"),
			TrialCreditUsed:  dec("95"),
		})

		assert.InDelta(t, 5, got.Percent, 0.0001)
		assert.True(t, got.LowCreditWarning)
	})

	t.Run("custom threshold overrides the default", func(t *testing.T) {
		got := CalculateSidebarProgress(SidebarProgressInput{
			State:            MembershipTrialActive,
			TrialCreditLimit: dec("100"),
			TrialCreditUsed:  dec("80"),
			ThresholdPercent: 25,
		})

		assert.InDelta(t, 20, got.Percent, 0.0001)
		assert.True(t, got.LowCreditWarning)
	})
}

func TestIsLowCreditWarningVisible(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		want     bool
	}{
		{"zero progress never warns", 0, false},
		{"just above zero warns", 0.1, true},
		{"mid-range warns", 9, true},
		{"exactly at threshold does not warn", 10, false},
		{"above threshold does not warn", 10.1, false},
		{"healthy balance does not warn", 85, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsLowCreditWarningVisible(tt.progress, DefaultLowCreditThresholdPercent)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitSegments(t *testing.T) {
	t.Run("splits proportionally to remaining balances", func(t *testing.T) {
		pkg, topup := splitSegments(60, decimal.NewFromInt(40), decimal.NewFromInt(20))
		assert.InDelta(t, 40, pkg, 0.0001)
		assert.InDelta(t, 20, topup, 0.0001)
	})

	t.Run("zero total yields zero segments", func(t *testing.T) {
		pkg, topup := splitSegments(0, decimal.Zero, decimal.Zero)
		assert.Zero(t, pkg)
		assert.Zero(t, topup)
	})
}
