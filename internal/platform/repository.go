package platform

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
)

// Repository persists the singleton platform state row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context) (*models.PlatformState, error)
	Create(ctx context.Context, state *models.PlatformState) error
	UpdateFee(ctx context.Context, feePercent int64) error
	NextCampaignID(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a platform repository backed by the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Get(ctx context.Context) (*models.PlatformState, error) {
	var state models.PlatformState
	err := r.db.WithContext(ctx).First(&state, "id = ?", models.PlatformStateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlatformNotInitialized
		}
		return nil, err
	}
	return &state, nil
}

func (r *gormRepository) Create(ctx context.Context, state *models.PlatformState) error {
	state.ID = models.PlatformStateID
	return r.db.WithContext(ctx).Create(state).Error
}

func (r *gormRepository) UpdateFee(ctx context.Context, feePercent int64) error {
	res := r.db.WithContext(ctx).Model(&models.PlatformState{}).
		Where("id = ?", models.PlatformStateID).
		Update("platform_fee_percent", feePercent)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPlatformNotInitialized
	}
	return nil
}

// NextCampaignID advances the global campaign counter and returns the new
// value. The row update takes a lock, so concurrent callers never observe
// the same id.
func (r *gormRepository) NextCampaignID(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Raw(
		"UPDATE platform_state SET campaign_count = campaign_count + 1, updated_at = NOW() WHERE id = ? RETURNING campaign_count",
		models.PlatformStateID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return 0, fmt.Errorf("campaign counter did not advance: %w", ErrPlatformNotInitialized)
	}
	return next, nil
}
