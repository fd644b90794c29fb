package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
)

const defaultPageLimit = 100

// Repository persists the append-only contribution ledger. Entries are
// inserted and read, never updated or deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.LedgerEntry) error
	ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]models.LedgerEntry, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository backed by the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormRepository) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("occurred_at DESC, seq DESC").
		Limit(clampLimit(limit)).
		Offset(max(offset, 0)).
		Find(&entries).Error
	return entries, err
}

func (r *gormRepository) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("owner_identity = ?", owner).
		Order("occurred_at DESC").
		Limit(clampLimit(limit)).
		Offset(max(offset, 0)).
		Find(&entries).Error
	return entries, err
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultPageLimit {
		return defaultPageLimit
	}
	return limit
}
