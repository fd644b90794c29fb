package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformStateID is the fixed primary key of the singleton platform row.
const PlatformStateID int16 = 1

// PlatformState is the singleton configuration record for the platform.
// It is created exactly once and never deleted.
type PlatformState struct {
	ID                 int16     `gorm:"column:id;primaryKey"`
	Initialized        bool      `gorm:"column:initialized;not null"`
	CampaignCount      int64     `gorm:"column:campaign_count;not null"`
	PlatformFeePercent int64     `gorm:"column:platform_fee_percent;not null"`
	PlatformIdentity   uuid.UUID `gorm:"column:platform_identity;type:uuid;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular table name for the singleton row.
func (PlatformState) TableName() string {
	return "platform_state"
}
