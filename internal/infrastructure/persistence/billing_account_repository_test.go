package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
	"github.com/leadqual/backend/internal/infrastructure/persistence/models"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.BillingAccountModel{}, &models.CreditLedgerEntryModel{})
	require.NoError(t, err)

	return db
}

// setupUnprovisionedTestDB opens a database without running any migration,
// mimicking an environment where the billing tables do not exist yet.
func setupUnprovisionedTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func newPremiumAccount(t *testing.T, orgID uuid.UUID) *billing.BillingAccount {
	t.Helper()
	account, err := billing.NewTrialAccount(orgID, decimal.NewFromInt(120), 7)
	require.NoError(t, err)

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)
	account.State = billing.MembershipPremiumActive
	account.CurrentPeriodStart = &now
	account.CurrentPeriodEnd = &periodEnd
	account.MonthlyPackageCreditLimit = decimal.NewFromInt(80)
	account.MonthlyPackageCreditUsed = decimal.NewFromInt(30)
	account.TopupCreditBalance = decimal.RequireFromString("7.5")
	account.PremiumAssignedAt = &now
	return account
}

func TestGormBillingAccountRepository_SaveAndFind(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormBillingAccountRepository(db)
	ctx := context.Background()

	t.Run("round-trips a premium account", func(t *testing.T) {
		orgID := uuid.New()
		account := newPremiumAccount(t, orgID)

		require.NoError(t, repo.Save(ctx, account))

		found, err := repo.FindByOrganization(ctx, orgID)
		require.NoError(t, err)
		assert.Equal(t, account.GetID(), found.GetID())
		assert.Equal(t, orgID, found.OrganizationID)
		assert.Equal(t, billing.MembershipPremiumActive, found.State)
		assert.True(t, found.MonthlyPackageCreditLimit.Equal(decimal.NewFromInt(80)))
		assert.True(t, found.MonthlyPackageCreditUsed.Equal(decimal.NewFromInt(30)))
		assert.True(t, found.TopupCreditBalance.Equal(decimal.RequireFromString("7.5")))

		// Every nullable instant must scan back on both postgres and the
		// sqlite driver these tests run on.
		require.NotNil(t, found.TrialStartedAt)
		require.NotNil(t, found.TrialEndsAt)
		require.NotNil(t, found.CurrentPeriodStart)
		require.NotNil(t, found.CurrentPeriodEnd)
		require.NotNil(t, found.PremiumAssignedAt)
		assert.Nil(t, found.LastManualActionAt)
		assert.WithinDuration(t, *account.CurrentPeriodEnd, *found.CurrentPeriodEnd, time.Second)
	})

	t.Run("normalizes a garbage stored lock reason", func(t *testing.T) {
		orgID := uuid.New()
		account := newPremiumAccount(t, orgID)
		require.NoError(t, repo.Save(ctx, account))

		err := db.Model(&models.BillingAccountModel{}).
			Where("organization_id = ?", orgID).
			Update("lock_reason", "totally_bogus").Error
		require.NoError(t, err)

		found, err := repo.FindByOrganization(ctx, orgID)
		require.NoError(t, err)
		assert.Equal(t, billing.LockReasonNone, found.StoredLock)
	})

	t.Run("keeps an unknown membership state verbatim", func(t *testing.T) {
		orgID := uuid.New()
		account := newPremiumAccount(t, orgID)
		require.NoError(t, repo.Save(ctx, account))

		err := db.Model(&models.BillingAccountModel{}).
			Where("organization_id = ?", orgID).
			Update("membership_state", "mystery_tier").Error
		require.NoError(t, err)

		found, err := repo.FindByOrganization(ctx, orgID)
		require.NoError(t, err)
		assert.Equal(t, billing.MembershipState("mystery_tier"), found.State)
		assert.False(t, found.State.IsValid())
	})

	t.Run("returns ErrNotFound for a missing organization", func(t *testing.T) {
		_, err := repo.FindByOrganization(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBillingAccountRepository_Unprovisioned(t *testing.T) {
	db := setupUnprovisionedTestDB(t)
	repo := NewGormBillingAccountRepository(db)
	ctx := context.Background()

	t.Run("find reports unprovisioned store", func(t *testing.T) {
		_, err := repo.FindByOrganization(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrStoreUnprovisioned)
	})

	t.Run("save reports unprovisioned store", func(t *testing.T) {
		account := newPremiumAccount(t, uuid.New())
		err := repo.Save(ctx, account)
		assert.ErrorIs(t, err, shared.ErrStoreUnprovisioned)
	})
}

func TestIsMissingRelation(t *testing.T) {
	t.Run("postgres undefined_table code", func(t *testing.T) {
		assert.True(t, isMissingRelation(&pq.Error{Code: "42P01"}))
	})

	t.Run("postgres message text", func(t *testing.T) {
		assert.True(t, isMissingRelation(errors.New(`relation "billing_accounts" does not exist`)))
	})

	t.Run("sqlite message text", func(t *testing.T) {
		assert.True(t, isMissingRelation(errors.New("no such table: billing_accounts")))
	})

	t.Run("other errors are not missing relations", func(t *testing.T) {
		assert.False(t, isMissingRelation(nil))
		assert.False(t, isMissingRelation(errors.New("connection refused")))
		assert.False(t, isMissingRelation(&pq.Error{Code: "23505"}))
	})
}
