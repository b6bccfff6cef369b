package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
)

func appendLedgerEntry(t *testing.T, repo *GormCreditLedgerRepository, orgID uuid.UUID, delta, after string, createdAt time.Time) *billing.CreditLedgerEntry {
	t.Helper()
	entryType := billing.LedgerEntryDebit
	if !decimal.RequireFromString(delta).IsNegative() {
		entryType = billing.LedgerEntryCredit
	}
	entry, err := billing.NewCreditLedgerEntry(orgID, entryType, billing.CreditPoolPackage,
		decimal.RequireFromString(delta), decimal.RequireFromString(after))
	require.NoError(t, err)
	entry.WithReason("usage").WithMetadata("trace_id", uuid.NewString()).WithCreatedAt(createdAt)
	require.NoError(t, repo.Append(context.Background(), entry))
	return entry
}

func TestGormCreditLedgerRepository_ListByOrganization(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormCreditLedgerRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("returns entries newest first", func(t *testing.T) {
		orgID := uuid.New()
		appendLedgerEntry(t, repo, orgID, "50", "50", base)
		appendLedgerEntry(t, repo, orgID, "-1.2", "48.8", base.Add(time.Hour))
		appendLedgerEntry(t, repo, orgID, "-0.3", "48.5", base.Add(2*time.Hour))

		entries, err := repo.ListByOrganization(ctx, orgID, billing.LedgerQuery{Limit: 15})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.True(t, entries[0].CreditsDelta.Equal(decimal.RequireFromString("-0.3")))
		assert.True(t, entries[2].CreditsDelta.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, "usage", entries[0].Reason)
		assert.NotEmpty(t, entries[0].Metadata["trace_id"])
	})

	t.Run("honors the limit", func(t *testing.T) {
		orgID := uuid.New()
		for i := 0; i < 5; i++ {
			appendLedgerEntry(t, repo, orgID, "-0.1", "10", base.Add(time.Duration(i)*time.Minute))
		}

		entries, err := repo.ListByOrganization(ctx, orgID, billing.LedgerQuery{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("does not leak entries across organizations", func(t *testing.T) {
		orgA := uuid.New()
		orgB := uuid.New()
		appendLedgerEntry(t, repo, orgA, "-0.5", "10", base)
		appendLedgerEntry(t, repo, orgB, "-0.7", "20", base)

		entries, err := repo.ListByOrganization(ctx, orgA, billing.LedgerQuery{Limit: 15})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, orgA, entries[0].OrganizationID)
	})

	t.Run("empty history yields an empty slice", func(t *testing.T) {
		entries, err := repo.ListByOrganization(ctx, uuid.New(), billing.LedgerQuery{Limit: 15})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestGormCreditLedgerRepository_Unprovisioned(t *testing.T) {
	db := setupUnprovisionedTestDB(t)
	repo := NewGormCreditLedgerRepository(db)

	_, err := repo.ListByOrganization(context.Background(), uuid.New(), billing.LedgerQuery{Limit: 15})
	assert.ErrorIs(t, err, shared.ErrStoreUnprovisioned)
}
