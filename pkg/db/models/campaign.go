package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is the per-campaign custody and lifecycle record. The id is
// assigned from the global platform campaign counter, never auto-generated.
type Campaign struct {
	ID                int64     `gorm:"column:id;primaryKey"`
	CreatorIdentity   uuid.UUID `gorm:"column:creator_identity;type:uuid;not null;index"`
	Title             string    `gorm:"column:title;size:64;not null"`
	Description       string    `gorm:"column:description;size:512;not null"`
	ImageURL          string    `gorm:"column:image_url;size:256;not null"`
	GoalUnits         int64     `gorm:"column:goal_units;not null"`
	AmountRaisedUnits int64     `gorm:"column:amount_raised_units;not null"`
	BalanceUnits      int64     `gorm:"column:balance_units;not null"`
	Donors            int64     `gorm:"column:donors;not null"`
	Withdrawals       int64     `gorm:"column:withdrawals;not null"`
	Active            bool      `gorm:"column:active;not null"`
	CustodyAccountID  uuid.UUID `gorm:"column:custody_account_id;type:uuid;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
