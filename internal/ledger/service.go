package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
)

// Entry describes one fund movement to record.
type Entry struct {
	CampaignID    int64
	OwnerIdentity uuid.UUID
	AmountUnits   int64
	Credited      bool
	Seq           int64
	OccurredAt    time.Time
}

// Service records and reads contribution ledger entries.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) (*models.LedgerEntry, error)
	ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]models.LedgerEntry, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// NewService wires the ledger service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	return &service{repo: repo}, nil
}

// Record appends one entry inside the caller's transaction so the ledger
// row commits atomically with the funding flow that produced it.
func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) (*models.LedgerEntry, error) {
	if entry.CampaignID <= 0 {
		return nil, fmt.Errorf("campaign id is required")
	}
	if entry.OwnerIdentity == uuid.Nil {
		return nil, fmt.Errorf("owner identity is required")
	}
	if entry.AmountUnits <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	row := &models.LedgerEntry{
		CampaignID:    entry.CampaignID,
		OwnerIdentity: entry.OwnerIdentity,
		AmountUnits:   entry.AmountUnits,
		Credited:      entry.Credited,
		Seq:           entry.Seq,
		OccurredAt:    entry.OccurredAt,
	}
	if err := s.repo.WithTx(tx).Insert(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]models.LedgerEntry, error) {
	return s.repo.ListByCampaign(ctx, campaignID, limit, offset)
}

func (s *service) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	return s.repo.ListByOwner(ctx, owner, limit, offset)
}
