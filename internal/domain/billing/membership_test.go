package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipState(t *testing.T) {
	t.Run("all listed states are valid", func(t *testing.T) {
		for _, state := range AllMembershipStates() {
			assert.True(t, state.IsValid(), "state %s", state)
			assert.NotEmpty(t, state.DisplayName())
		}
	})

	t.Run("rejects unknown state", func(t *testing.T) {
		assert.False(t, MembershipState("free_forever").IsValid())
		assert.False(t, MembershipState("").IsValid())
	})

	t.Run("trial classification", func(t *testing.T) {
		assert.True(t, MembershipTrialActive.IsTrial())
		assert.True(t, MembershipTrialExhausted.IsTrial())
		assert.False(t, MembershipPremiumActive.IsTrial())
	})

	t.Run("terminal classification", func(t *testing.T) {
		assert.True(t, MembershipPastDue.IsTerminal())
		assert.True(t, MembershipCanceled.IsTerminal())
		assert.True(t, MembershipAdminLocked.IsTerminal())
		assert.False(t, MembershipTrialActive.IsTerminal())
		assert.False(t, MembershipPremiumActive.IsTerminal())
	})

	t.Run("parse round-trips valid values", func(t *testing.T) {
		state, err := ParseMembershipState("premium_active")
		require.NoError(t, err)
		assert.Equal(t, MembershipPremiumActive, state)
	})

	t.Run("parse rejects invalid values", func(t *testing.T) {
		_, err := ParseMembershipState("PREMIUM")
		assert.Error(t, err)
	})
}

func TestLockReason(t *testing.T) {
	t.Run("none is not locked", func(t *testing.T) {
		assert.False(t, LockReasonNone.IsLocked())
		assert.False(t, LockReason("").IsLocked())
	})

	t.Run("every other reason is locked", func(t *testing.T) {
		for _, r := range []LockReason{
			LockReasonSubscriptionRequired,
			LockReasonTrialTimeExpired,
			LockReasonPackageCreditsExhausted,
			LockReasonPastDue,
			LockReasonAdminLocked,
		} {
			assert.True(t, r.IsLocked(), "reason %s", r)
		}
	})

	t.Run("parse normalizes garbage to none", func(t *testing.T) {
		assert.Equal(t, LockReasonNone, ParseLockReason("totally_bogus"))
		assert.Equal(t, LockReasonNone, ParseLockReason(""))
		assert.Equal(t, LockReasonPastDue, ParseLockReason("past_due"))
	})
}

func TestCreditPool(t *testing.T) {
	t.Run("validity", func(t *testing.T) {
		assert.True(t, CreditPoolTrial.IsValid())
		assert.True(t, CreditPoolPackage.IsValid())
		assert.True(t, CreditPoolTopup.IsValid())
		assert.False(t, CreditPoolNone.IsValid())
		assert.False(t, CreditPool("gift_pool").IsValid())
	})

	t.Run("display names", func(t *testing.T) {
		assert.Equal(t, "Trial Credits", CreditPoolTrial.DisplayName())
		assert.Equal(t, "Monthly Package", CreditPoolPackage.DisplayName())
		assert.Equal(t, "Top-up Balance", CreditPoolTopup.DisplayName())
	})
}
