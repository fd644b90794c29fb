package campaigns

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/internal/platform"
	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	"github.com/crowdvault/crowdvault-backend/pkg/db"
	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
	"github.com/crowdvault/crowdvault-backend/pkg/enums"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
	"github.com/crowdvault/crowdvault-backend/pkg/outbox"
	"github.com/crowdvault/crowdvault-backend/pkg/outbox/payloads"
)

// Field limits and the minimum goal, matching the ledger's storage layout.
const (
	MaxTitleLen       = 64
	MaxDescriptionLen = 512
	MaxImageURLLen    = 256
	MinGoalUnits      = 1_000_000_000
)

// CampaignInput carries the creator-editable campaign fields.
type CampaignInput struct {
	Title       string
	Description string
	ImageURL    string
	GoalUnits   int64
}

// Validate enforces field limits before anything touches storage.
func (in CampaignInput) Validate() error {
	if len(in.Title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if len(in.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if len(in.ImageURL) > MaxImageURLLen {
		return ErrImageURLTooLong
	}
	if in.GoalUnits < MinGoalUnits {
		return ErrGoalTooSmall
	}
	return nil
}

// Service owns the campaign lifecycle. Funding flows live in the funding
// engine; this service never moves value beyond provisioning the custody
// account at creation.
type Service interface {
	Create(ctx context.Context, creator uuid.UUID, input CampaignInput) (*models.Campaign, error)
	Update(ctx context.Context, actor uuid.UUID, id int64, input CampaignInput) (*models.Campaign, error)
	Deactivate(ctx context.Context, actor uuid.UUID, id int64) (*models.Campaign, error)
	Get(ctx context.Context, id int64) (*models.Campaign, error)
	List(ctx context.Context, page Page) ([]models.Campaign, error)
	ListByCreator(ctx context.Context, creator uuid.UUID, page Page) ([]models.Campaign, error)
}

type service struct {
	client        db.TxRunner
	repo          Repository
	platformRepo  platform.Repository
	treasury      treasury.Treasury
	events        outbox.Emitter
	log           *logger.Logger
	reservedUnits int64
}

// NewService wires the campaign service.
func NewService(client db.TxRunner, repo Repository, platformRepo platform.Repository, ts treasury.Treasury, events outbox.Emitter, log *logger.Logger, reservedUnits int64) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if platformRepo == nil {
		return nil, fmt.Errorf("platform repository is required")
	}
	if ts == nil {
		return nil, fmt.Errorf("treasury is required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if reservedUnits < 0 {
		return nil, fmt.Errorf("reserved units must not be negative")
	}
	return &service{
		client:        client,
		repo:          repo,
		platformRepo:  platformRepo,
		treasury:      ts,
		events:        events,
		log:           log,
		reservedUnits: reservedUnits,
	}, nil
}

func (s *service) Create(ctx context.Context, creator uuid.UUID, input CampaignInput) (*models.Campaign, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var campaign *models.Campaign
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		id, err := s.platformRepo.WithTx(tx).NextCampaignID(ctx)
		if err != nil {
			return err
		}

		custodyID := uuid.New()
		if err := s.treasury.WithTx(tx).EnsureAccount(ctx, custodyID, s.reservedUnits); err != nil {
			return err
		}

		campaign = &models.Campaign{
			ID:               id,
			CreatorIdentity:  creator,
			Title:            input.Title,
			Description:      input.Description,
			ImageURL:         input.ImageURL,
			GoalUnits:        input.GoalUnits,
			Active:           true,
			CustodyAccountID: custodyID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, campaign); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeCampaignCreated,
			AggregateType: enums.OutboxAggregateTypeCampaign,
			AggregateID:   strconv.FormatInt(id, 10),
			Actor:         &outbox.ActorRef{Identity: creator},
			Data: payloads.CampaignCreated{
				CampaignID:      id,
				CreatorIdentity: creator,
				Title:           input.Title,
				GoalUnits:       input.GoalUnits,
				CreatedAt:       time.Now().UTC(),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithCampaignID(ctx, campaign.ID), "campaign created")
	return campaign, nil
}

func (s *service) Update(ctx context.Context, actor uuid.UUID, id int64, input CampaignInput) (*models.Campaign, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var campaign *models.Campaign
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if found.CreatorIdentity != actor {
			return ErrNotCampaignCreator
		}
		if !found.Active {
			return ErrInactiveCampaign
		}

		found.Title = input.Title
		found.Description = input.Description
		found.ImageURL = input.ImageURL
		found.GoalUnits = input.GoalUnits
		if err := repo.UpdateDetails(ctx, found); err != nil {
			return err
		}
		campaign = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithCampaignID(ctx, id), "campaign updated")
	return campaign, nil
}

// Deactivate retires a campaign. The flag is one way, so a second call
// reports the inactive state instead of succeeding silently.
func (s *service) Deactivate(ctx context.Context, actor uuid.UUID, id int64) (*models.Campaign, error) {
	var campaign *models.Campaign
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if found.CreatorIdentity != actor {
			return ErrNotCampaignCreator
		}
		if !found.Active {
			return ErrInactiveCampaign
		}

		if err := repo.MarkInactive(ctx, id); err != nil {
			return err
		}
		found.Active = false
		campaign = found

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeCampaignDeactivated,
			AggregateType: enums.OutboxAggregateTypeCampaign,
			AggregateID:   strconv.FormatInt(id, 10),
			Actor:         &outbox.ActorRef{Identity: actor},
			Data: payloads.CampaignDeactivated{
				CampaignID:      id,
				CreatorIdentity: found.CreatorIdentity,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithCampaignID(ctx, id), "campaign deactivated")
	return campaign, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Campaign, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, page Page) ([]models.Campaign, error) {
	return s.repo.List(ctx, page)
}

func (s *service) ListByCreator(ctx context.Context, creator uuid.UUID, page Page) ([]models.Campaign, error) {
	return s.repo.ListByCreator(ctx, creator, page)
}
