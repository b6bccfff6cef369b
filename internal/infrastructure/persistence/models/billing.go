package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
)

// BillingAccountModel is the persistence model for the BillingAccount
// aggregate. One row per organization.
type BillingAccountModel struct {
	AggregateModel
	OrganizationID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	MembershipState           string          `gorm:"type:varchar(32);not null;default:'trial_active'"`
	LockReason                string          `gorm:"type:varchar(40);not null;default:'none'"`
	TrialStartedAt            *time.Time
	TrialEndsAt               *time.Time
	TrialCreditLimit          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TrialCreditUsed           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	CurrentPeriodStart        *time.Time
	CurrentPeriodEnd          *time.Time
	MonthlyPackageCreditLimit decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	MonthlyPackageCreditUsed  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TopupCreditBalance        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PremiumAssignedAt         *time.Time
	LastManualActionAt        *time.Time
}

// TableName returns the table name for GORM
func (BillingAccountModel) TableName() string {
	return "billing_accounts"
}

// ToDomain converts the persistence model to a domain BillingAccount.
// The stored membership state is kept verbatim even when unknown; the
// snapshot builder treats unknown states as locked. The stored lock reason
// is advisory and normalized on the way in.
func (m *BillingAccountModel) ToDomain() *billing.BillingAccount {
	return &billing.BillingAccount{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		OrganizationID:            m.OrganizationID,
		State:                     billing.MembershipState(m.MembershipState),
		StoredLock:                billing.ParseLockReason(m.LockReason),
		TrialStartedAt:            m.TrialStartedAt,
		TrialEndsAt:               m.TrialEndsAt,
		TrialCreditLimit:          m.TrialCreditLimit,
		TrialCreditUsed:           m.TrialCreditUsed,
		CurrentPeriodStart:        m.CurrentPeriodStart,
		CurrentPeriodEnd:          m.CurrentPeriodEnd,
		MonthlyPackageCreditLimit: m.MonthlyPackageCreditLimit,
		MonthlyPackageCreditUsed:  m.MonthlyPackageCreditUsed,
		TopupCreditBalance:        m.TopupCreditBalance,
		PremiumAssignedAt:         m.PremiumAssignedAt,
		LastManualActionAt:        m.LastManualActionAt,
	}
}

// FromDomain populates the persistence model from a domain BillingAccount.
func (m *BillingAccountModel) FromDomain(a *billing.BillingAccount) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.OrganizationID = a.OrganizationID
	m.MembershipState = a.State.String()
	m.LockReason = a.StoredLock.String()
	m.TrialStartedAt = a.TrialStartedAt
	m.TrialEndsAt = a.TrialEndsAt
	m.TrialCreditLimit = a.TrialCreditLimit
	m.TrialCreditUsed = a.TrialCreditUsed
	m.CurrentPeriodStart = a.CurrentPeriodStart
	m.CurrentPeriodEnd = a.CurrentPeriodEnd
	m.MonthlyPackageCreditLimit = a.MonthlyPackageCreditLimit
	m.MonthlyPackageCreditUsed = a.MonthlyPackageCreditUsed
	m.TopupCreditBalance = a.TopupCreditBalance
	m.PremiumAssignedAt = a.PremiumAssignedAt
	m.LastManualActionAt = a.LastManualActionAt
}

// BillingAccountModelFromDomain creates a persistence model from a domain
// BillingAccount.
func BillingAccountModelFromDomain(a *billing.BillingAccount) *BillingAccountModel {
	m := &BillingAccountModel{}
	m.FromDomain(a)
	return m
}

// CreditLedgerEntryModel is the persistence model for one append-only
// credit ledger row.
type CreditLedgerEntryModel struct {
	BaseModel
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_ledger_org_created"`
	EntryType      string          `gorm:"type:varchar(20);not null"`
	CreditPool     string          `gorm:"type:varchar(20);not null"`
	CreditsDelta   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	BalanceAfter   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Reason         string          `gorm:"type:varchar(100)"`
	Metadata       string          `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (CreditLedgerEntryModel) TableName() string {
	return "credit_ledger_entries"
}

// ToDomain converts the persistence model to a domain CreditLedgerEntry.
func (m *CreditLedgerEntryModel) ToDomain() *billing.CreditLedgerEntry {
	entry := &billing.CreditLedgerEntry{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrganizationID: m.OrganizationID,
		EntryType:      billing.LedgerEntryType(m.EntryType),
		CreditPool:     billing.CreditPool(m.CreditPool),
		CreditsDelta:   m.CreditsDelta,
		BalanceAfter:   m.BalanceAfter,
		Reason:         m.Reason,
		Metadata:       make(billing.LedgerMetadata),
	}
	if m.Metadata != "" {
		_ = json.Unmarshal([]byte(m.Metadata), &entry.Metadata)
	}
	return entry
}

// FromDomain populates the persistence model from a domain CreditLedgerEntry.
func (m *CreditLedgerEntryModel) FromDomain(e *billing.CreditLedgerEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.OrganizationID = e.OrganizationID
	m.EntryType = e.EntryType.String()
	m.CreditPool = e.CreditPool.String()
	m.CreditsDelta = e.CreditsDelta
	m.BalanceAfter = e.BalanceAfter
	m.Reason = e.Reason
	if len(e.Metadata) > 0 {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			m.Metadata = string(raw)
		}
	}
	if m.Metadata == "" {
		m.Metadata = "{}"
	}
}

// CreditLedgerEntryModelFromDomain creates a persistence model from a domain
// CreditLedgerEntry.
func CreditLedgerEntryModelFromDomain(e *billing.CreditLedgerEntry) *CreditLedgerEntryModel {
	m := &CreditLedgerEntryModel{}
	m.FromDomain(e)
	return m
}
