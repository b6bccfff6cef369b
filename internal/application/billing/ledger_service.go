package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
)

const (
	// DefaultLedgerPageSize is used when the caller passes no limit
	DefaultLedgerPageSize = 15

	// MaxLedgerPageSize caps a single ledger read
	MaxLedgerPageSize = 100
)

// LedgerEntryView is the display shape of a single ledger row.
type LedgerEntryView struct {
	ID           uuid.UUID       `json:"id"`
	EntryType    string          `json:"entry_type"`
	CreditPool   string          `json:"credit_pool"`
	PoolName     string          `json:"pool_name"`
	CreditsDelta decimal.Decimal `json:"credits_delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reason       string          `json:"reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LedgerView is a page of ledger history for display.
type LedgerView struct {
	Entries []LedgerEntryView `json:"entries"`
	Count   int               `json:"count"`
}

// LedgerDisplayCache caches rendered ledger pages. Implementations may be
// backed by Redis; a nil cache disables caching entirely.
type LedgerDisplayCache interface {
	Get(ctx context.Context, organizationID uuid.UUID, limit int) (*LedgerView, bool)
	Set(ctx context.Context, organizationID uuid.UUID, limit int, view *LedgerView)
}

// LedgerService reads the append-only credit ledger for audit display.
// The ledger is informational: a read failure degrades to an empty page
// instead of failing the request.
type LedgerService struct {
	ledgerRepo billing.CreditLedgerRepository
	cache      LedgerDisplayCache
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService. cache may be nil.
func NewLedgerService(ledgerRepo billing.CreditLedgerRepository, cache LedgerDisplayCache, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		cache:      cache,
		logger:     logger,
	}
}

// GetLedgerHistory returns the newest ledger entries for an organization.
// The limit is clamped to [1,100]; zero or negative values use the default
// page size of 15.
func (s *LedgerService) GetLedgerHistory(ctx context.Context, organizationID uuid.UUID, limit int) (*LedgerView, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}

	limit = clampLedgerLimit(limit)

	if s.cache != nil {
		if view, ok := s.cache.Get(ctx, organizationID, limit); ok {
			return view, nil
		}
	}

	entries, err := s.ledgerRepo.ListByOrganization(ctx, organizationID, billing.LedgerQuery{Limit: limit})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrStoreUnprovisioned):
			s.logger.Warn("Ledger store not provisioned, serving empty history",
				zap.String("organization_id", organizationID.String()))
		default:
			s.logger.Error("Failed to read credit ledger, serving empty history",
				zap.String("organization_id", organizationID.String()),
				zap.Error(err))
		}
		return &LedgerView{Entries: []LedgerEntryView{}}, nil
	}

	view := &LedgerView{
		Entries: make([]LedgerEntryView, 0, len(entries)),
		Count:   len(entries),
	}
	for _, entry := range entries {
		view.Entries = append(view.Entries, LedgerEntryView{
			ID:           entry.GetID(),
			EntryType:    entry.EntryType.String(),
			CreditPool:   entry.CreditPool.String(),
			PoolName:     entry.CreditPool.DisplayName(),
			CreditsDelta: entry.CreditsDelta,
			BalanceAfter: entry.BalanceAfter,
			Reason:       entry.Reason,
			CreatedAt:    entry.GetCreatedAt(),
		})
	}

	if s.cache != nil {
		s.cache.Set(ctx, organizationID, limit, view)
	}
	return view, nil
}

// clampLedgerLimit bounds a requested page size to [1,100], defaulting
// non-positive values to 15.
func clampLedgerLimit(limit int) int {
	if limit <= 0 {
		return DefaultLedgerPageSize
	}
	if limit > MaxLedgerPageSize {
		return MaxLedgerPageSize
	}
	return limit
}
