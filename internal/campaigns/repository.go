package campaigns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
)

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

const defaultPageLimit = 50

func (p Page) normalize() Page {
	if p.Limit <= 0 || p.Limit > defaultPageLimit {
		p.Limit = defaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Repository persists campaign records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id int64) (*models.Campaign, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Campaign, error)
	UpdateDetails(ctx context.Context, campaign *models.Campaign) error
	MarkInactive(ctx context.Context, id int64) error
	ApplyDonation(ctx context.Context, id, amountUnits int64) error
	ApplyWithdrawal(ctx context.Context, id, amountUnits int64) error
	List(ctx context.Context, page Page) ([]models.Campaign, error)
	ListByCreator(ctx context.Context, creator uuid.UUID, page Page) ([]models.Campaign, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a campaign repository backed by the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id int64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).First(&campaign, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// FindByIDForUpdate takes a row lock so funding flows against the same
// campaign serialize. Only meaningful inside a transaction.
func (r *gormRepository) FindByIDForUpdate(ctx context.Context, id int64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&campaign, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *gormRepository) UpdateDetails(ctx context.Context, campaign *models.Campaign) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ?", campaign.ID).
		Updates(map[string]interface{}{
			"title":       campaign.Title,
			"description": campaign.Description,
			"image_url":   campaign.ImageURL,
			"goal_units":  campaign.GoalUnits,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

func (r *gormRepository) MarkInactive(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND active", id).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInactiveCampaign
	}
	return nil
}

func (r *gormRepository) ApplyDonation(ctx context.Context, id, amountUnits int64) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_raised_units": gorm.Expr("amount_raised_units + ?", amountUnits),
			"balance_units":       gorm.Expr("balance_units + ?", amountUnits),
			"donors":              gorm.Expr("donors + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

func (r *gormRepository) ApplyWithdrawal(ctx context.Context, id, amountUnits int64) error {
	res := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND balance_units >= ?", id, amountUnits).
		Updates(map[string]interface{}{
			"balance_units": gorm.Expr("balance_units - ?", amountUnits),
			"withdrawals":   gorm.Expr("withdrawals + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWithdrawalExceedsBalance
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, page Page) ([]models.Campaign, error) {
	page = page.normalize()
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&campaigns).Error
	return campaigns, err
}

func (r *gormRepository) ListByCreator(ctx context.Context, creator uuid.UUID, page Page) ([]models.Campaign, error) {
	page = page.normalize()
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Where("creator_identity = ?", creator).
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&campaigns).Error
	return campaigns, err
}
