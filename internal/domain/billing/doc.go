// Package billing provides domain models for credit entitlement and the
// credit ledger in a multi-tenant SaaS application.
//
// This package implements the billing bounded context, which is responsible for:
//   - Deciding whether paid AI usage is permitted for an organization at a
//     given instant (entitlement snapshot)
//   - Pricing token usage in credits with exact tenth-of-a-credit rounding
//   - Selecting which credit pool (trial, monthly package, top-up) funds usage
//   - Mapping the entitlement state to workspace access and sidebar numbers
//
// Key Aggregates:
//   - BillingAccount: Per-organization credit counters and membership state
//
// Value Objects:
//   - BillingSnapshot: Fully-derived, point-in-time entitlement view
//   - CreditLedgerEntry: Immutable record of a credit-affecting event
//
// The billing domain never mutates balances itself: debits and credits are
// applied by an external atomic checkout/usage procedure, and this package
// only derives decisions from the stored counters.
package billing
