package models

import (
	"time"

	"github.com/google/uuid"
)

// CustodyAccount is a value-holding record in the treasury substrate.
// The id doubles as the owning identity: user accounts are keyed by the
// user's identity, campaign accounts by a dedicated custody id.
// ReservedUnits is the substrate-imposed floor the balance may not cross.
type CustodyAccount struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BalanceUnits  int64     `gorm:"column:balance_units;not null"`
	ReservedUnits int64     `gorm:"column:reserved_units;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
