package billing

import (
	"context"

	"github.com/google/uuid"
)

// BillingAccountRepository defines the read path over billing accounts.
// The engine never writes balances; mutation happens through the external
// atomic checkout/usage procedure.
type BillingAccountRepository interface {
	// FindByOrganization retrieves the single billing account row for an
	// organization. Returns shared.ErrNotFound when no row exists and
	// shared.ErrStoreUnprovisioned when the backing table is missing.
	FindByOrganization(ctx context.Context, organizationID uuid.UUID) (*BillingAccount, error)

	// Save persists a billing account. Used by provisioning and
	// administrative tooling only, never by the entitlement path.
	Save(ctx context.Context, account *BillingAccount) error
}

// LedgerQuery bounds a ledger read. Limit outside [1,100] is clamped by the
// reader; zero means the default page size.
type LedgerQuery struct {
	Limit int
}

// CreditLedgerRepository defines the read-only path over the append-only
// credit ledger.
type CreditLedgerRepository interface {
	// ListByOrganization returns ledger entries newest-first. Returns
	// shared.ErrStoreUnprovisioned when the ledger table is missing.
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, query LedgerQuery) ([]*CreditLedgerEntry, error)
}

// CheckoutStatus is the closed result enum of the external atomic
// checkout procedure. The engine maps these values and never computes or
// applies the balance delta itself.
type CheckoutStatus string

const (
	CheckoutStatusSuccess CheckoutStatus = "success"
	CheckoutStatusFailed  CheckoutStatus = "failed"
	CheckoutStatusBlocked CheckoutStatus = "blocked"
	CheckoutStatusError   CheckoutStatus = "error"
)

// IsValid returns true if the checkout status is one of the closed set
func (s CheckoutStatus) IsValid() bool {
	switch s {
	case CheckoutStatusSuccess, CheckoutStatusFailed, CheckoutStatusBlocked, CheckoutStatusError:
		return true
	}
	return false
}

// CheckoutResult is the response contract of the external procedure.
type CheckoutResult struct {
	Status CheckoutStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

// CheckoutGateway invokes the external atomic credit-mutation procedures by
// name. The procedures guarantee at-most-one successful mutation per logical
// event; this core only interprets the result.
type CheckoutGateway interface {
	// Subscribe invokes mock_checkout_subscribe for the organization.
	Subscribe(ctx context.Context, organizationID uuid.UUID, planID string) (CheckoutResult, error)

	// Topup invokes mock_checkout_topup for the organization.
	Topup(ctx context.Context, organizationID uuid.UUID, packageID string) (CheckoutResult, error)
}
