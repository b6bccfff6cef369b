package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
	"github.com/leadqual/backend/internal/infrastructure/persistence/models"
)

// GormCreditLedgerRepository implements CreditLedgerRepository using GORM
type GormCreditLedgerRepository struct {
	db *gorm.DB
}

var _ billing.CreditLedgerRepository = (*GormCreditLedgerRepository)(nil)

// NewGormCreditLedgerRepository creates a new GormCreditLedgerRepository
func NewGormCreditLedgerRepository(db *gorm.DB) *GormCreditLedgerRepository {
	return &GormCreditLedgerRepository{db: db}
}

// ListByOrganization returns ledger entries for an organization, newest
// first. The caller is expected to pass an already-clamped limit.
func (r *GormCreditLedgerRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, query billing.LedgerQuery) ([]*billing.CreditLedgerEntry, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 15
	}

	var rows []*models.CreditLedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		if isMissingRelation(err) {
			return nil, shared.ErrStoreUnprovisioned
		}
		return nil, err
	}

	entries := make([]*billing.CreditLedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToDomain())
	}
	return entries, nil
}

// Append writes a ledger entry. Exposed for provisioning fixtures and the
// simulated checkout path; production entries are written by the external
// atomic procedure.
func (r *GormCreditLedgerRepository) Append(ctx context.Context, entry *billing.CreditLedgerEntry) error {
	model := models.CreditLedgerEntryModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isMissingRelation(err) {
			return shared.ErrStoreUnprovisioned
		}
		return err
	}
	return nil
}
