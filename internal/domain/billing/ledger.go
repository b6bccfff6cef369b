package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leadqual/backend/internal/domain/shared"
)

// LedgerEntryType classifies a credit ledger entry
type LedgerEntryType string

const (
	// LedgerEntryDebit records credits consumed by usage
	LedgerEntryDebit LedgerEntryType = "debit"

	// LedgerEntryCredit records credits granted by a purchase or refill
	LedgerEntryCredit LedgerEntryType = "credit"

	// LedgerEntryAdjustment records a manual administrative correction
	LedgerEntryAdjustment LedgerEntryType = "adjustment"
)

// String returns the string representation of LedgerEntryType
func (t LedgerEntryType) String() string {
	return string(t)
}

// IsValid returns true if the entry type is valid
func (t LedgerEntryType) IsValid() bool {
	switch t {
	case LedgerEntryDebit, LedgerEntryCredit, LedgerEntryAdjustment:
		return true
	}
	return false
}

// LedgerMetadata holds additional context about a ledger entry
type LedgerMetadata map[string]any

// CreditLedgerEntry is an immutable record of a single credit-affecting
// event. Entries are written exclusively by the external atomic mutation
// procedure; this core only reads them for audit display. Once created an
// entry is never updated or deleted.
type CreditLedgerEntry struct {
	shared.BaseEntity
	OrganizationID uuid.UUID       // Organization the entry belongs to
	EntryType      LedgerEntryType // debit, credit or adjustment
	CreditPool     CreditPool      // Pool the delta applied to
	CreditsDelta   decimal.Decimal // Signed credit change
	BalanceAfter   decimal.Decimal // Materialized pool total after the event
	Reason         string          // Free-text category of the event
	Metadata       LedgerMetadata  // Opaque context bag
}

var _ shared.OrganizationScoped = (*CreditLedgerEntry)(nil)

// NewCreditLedgerEntry creates a ledger entry with validation. Used by
// fixtures and the simulated checkout path in tests; the production writer
// is external to this core.
func NewCreditLedgerEntry(
	organizationID uuid.UUID,
	entryType LedgerEntryType,
	pool CreditPool,
	creditsDelta decimal.Decimal,
	balanceAfter decimal.Decimal,
) (*CreditLedgerEntry, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Invalid ledger entry type")
	}
	if !pool.IsValid() {
		return nil, shared.NewDomainError("INVALID_CREDIT_POOL", "Invalid credit pool")
	}

	return &CreditLedgerEntry{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: organizationID,
		EntryType:      entryType,
		CreditPool:     pool,
		CreditsDelta:   creditsDelta,
		BalanceAfter:   balanceAfter,
		Metadata:       make(LedgerMetadata),
	}, nil
}

// GetOrganizationID returns the organization the entry belongs to
func (e *CreditLedgerEntry) GetOrganizationID() uuid.UUID {
	return e.OrganizationID
}

// WithReason sets the free-text reason for the entry
func (e *CreditLedgerEntry) WithReason(reason string) *CreditLedgerEntry {
	e.Reason = reason
	return e
}

// WithMetadata adds a metadata key/value to the entry
func (e *CreditLedgerEntry) WithMetadata(key string, value any) *CreditLedgerEntry {
	if e.Metadata == nil {
		e.Metadata = make(LedgerMetadata)
	}
	e.Metadata[key] = value
	return e
}

// WithCreatedAt sets a custom creation time (useful for fixtures)
func (e *CreditLedgerEntry) WithCreatedAt(createdAt time.Time) *CreditLedgerEntry {
	e.CreatedAt = createdAt
	return e
}

// IsDebit returns true for usage-consumption entries
func (e *CreditLedgerEntry) IsDebit() bool {
	return e.EntryType == LedgerEntryDebit
}
