package platform

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	"github.com/crowdvault/crowdvault-backend/pkg/db"
	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
)

// Fee bounds and default, in whole percent.
const (
	DefaultFeePercent int64 = 5
	MinFeePercent     int64 = 1
	MaxFeePercent     int64 = 15
)

var (
	ErrAlreadyInitialized     = pkgerrors.New(pkgerrors.CodeConflict, "platform already initialized")
	ErrPlatformNotInitialized = pkgerrors.New(pkgerrors.CodeNotFound, "platform not initialized")
	ErrInvalidPlatformFee     = pkgerrors.New(pkgerrors.CodeValidation, "platform fee out of range")
	ErrNotPlatformAuthority   = pkgerrors.New(pkgerrors.CodeForbidden, "caller is not the platform authority")
)

// Service owns the platform lifecycle: one-time initialization and
// authority-gated settings updates.
type Service interface {
	Initialize(ctx context.Context, identity uuid.UUID) (*models.PlatformState, error)
	UpdateSettings(ctx context.Context, actor uuid.UUID, feePercent int64) (*models.PlatformState, error)
	State(ctx context.Context) (*models.PlatformState, error)
}

type service struct {
	client        db.TxRunner
	repo          Repository
	treasury      treasury.Treasury
	log           *logger.Logger
	reservedUnits int64
}

// NewService wires the platform service. reservedUnits is the minimum
// balance provisioned on the platform's custody account.
func NewService(client db.TxRunner, repo Repository, ts treasury.Treasury, log *logger.Logger, reservedUnits int64) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("platform repository is required")
	}
	if ts == nil {
		return nil, fmt.Errorf("treasury is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if reservedUnits < 0 {
		return nil, fmt.Errorf("reserved units must not be negative")
	}
	return &service{client: client, repo: repo, treasury: ts, log: log, reservedUnits: reservedUnits}, nil
}

func (s *service) Initialize(ctx context.Context, identity uuid.UUID) (*models.PlatformState, error) {
	if identity == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform identity is required")
	}

	state := &models.PlatformState{
		Initialized:        true,
		CampaignCount:      0,
		PlatformFeePercent: DefaultFeePercent,
		PlatformIdentity:   identity,
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, state); err != nil {
			if db.IsUniqueViolation(err, "platform_state_pkey") {
				return ErrAlreadyInitialized
			}
			return err
		}
		return s.treasury.WithTx(tx).EnsureAccount(ctx, identity, s.reservedUnits)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithUserID(ctx, identity.String()), "platform initialized")
	return state, nil
}

func (s *service) UpdateSettings(ctx context.Context, actor uuid.UUID, feePercent int64) (*models.PlatformState, error) {
	if feePercent < MinFeePercent || feePercent > MaxFeePercent {
		return nil, ErrInvalidPlatformFee
	}

	state, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if state.PlatformIdentity != actor {
		return nil, ErrNotPlatformAuthority
	}

	if err := s.repo.UpdateFee(ctx, feePercent); err != nil {
		return nil, err
	}
	state.PlatformFeePercent = feePercent

	s.log.Info(s.log.WithField(ctx, "fee_percent", feePercent), "platform fee updated")
	return state, nil
}

func (s *service) State(ctx context.Context) (*models.PlatformState, error) {
	return s.repo.Get(ctx)
}
