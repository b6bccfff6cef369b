package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/leadqual/backend/internal/domain/billing"
	"github.com/leadqual/backend/internal/domain/shared"
	"github.com/leadqual/backend/internal/infrastructure/persistence/models"
)

// GormBillingAccountRepository implements BillingAccountRepository using GORM
type GormBillingAccountRepository struct {
	db *gorm.DB
}

var _ billing.BillingAccountRepository = (*GormBillingAccountRepository)(nil)

// NewGormBillingAccountRepository creates a new GormBillingAccountRepository
func NewGormBillingAccountRepository(db *gorm.DB) *GormBillingAccountRepository {
	return &GormBillingAccountRepository{db: db}
}

// FindByOrganization finds the single billing account row for an organization
func (r *GormBillingAccountRepository) FindByOrganization(ctx context.Context, organizationID uuid.UUID) (*billing.BillingAccount, error) {
	var model models.BillingAccountModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		if isMissingRelation(err) {
			return nil, shared.ErrStoreUnprovisioned
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists a billing account, creating or updating the row
func (r *GormBillingAccountRepository) Save(ctx context.Context, account *billing.BillingAccount) error {
	model := models.BillingAccountModelFromDomain(account)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isMissingRelation(err) {
			return shared.ErrStoreUnprovisioned
		}
		return err
	}
	return nil
}

// isMissingRelation reports whether an error means the backing table does
// not exist. Postgres signals this with SQLSTATE 42P01; SQLite, used by the
// repository tests, reports "no such table". Detecting it lets the caller
// distinguish an unprovisioned environment from a genuine failure.
func isMissingRelation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "does not exist")
}
