package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntry records one immutable fund movement against a campaign.
// Credited entries are donations; debited entries are withdrawals. The
// (campaign, credited, seq) triple is unique, with seq taken from the
// campaign's donors/withdrawals counters at write time.
type LedgerEntry struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID    int64     `gorm:"column:campaign_id;not null;index"`
	OwnerIdentity uuid.UUID `gorm:"column:owner_identity;type:uuid;not null;index"`
	AmountUnits   int64     `gorm:"column:amount_units;not null"`
	Credited      bool      `gorm:"column:credited;not null"`
	Seq           int64     `gorm:"column:seq;not null"`
	OccurredAt    time.Time `gorm:"column:occurred_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
