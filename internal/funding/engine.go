package funding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crowdvault/crowdvault-backend/internal/campaigns"
	"github.com/crowdvault/crowdvault-backend/internal/ledger"
	"github.com/crowdvault/crowdvault-backend/internal/platform"
	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	"github.com/crowdvault/crowdvault-backend/pkg/db"
	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
	"github.com/crowdvault/crowdvault-backend/pkg/enums"
	pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
	"github.com/crowdvault/crowdvault-backend/pkg/metrics"
	"github.com/crowdvault/crowdvault-backend/pkg/outbox"
	"github.com/crowdvault/crowdvault-backend/pkg/outbox/payloads"
)

// Funding minimums in base units. One token is 1e9 units.
const (
	MinDonationUnits   int64 = 1_000_000
	MinWithdrawalUnits int64 = 1_000_000_000
)

var (
	ErrInvalidDonationAmount   = pkgerrors.New(pkgerrors.CodeValidation, "donation below the minimum amount")
	ErrInvalidWithdrawalAmount = pkgerrors.New(pkgerrors.CodeValidation, "withdrawal below the minimum amount")
	ErrCampaignGoalActualized  = pkgerrors.New(pkgerrors.CodeStateConflict, "campaign goal already actualized")
	ErrInvalidPlatformAddress  = pkgerrors.New(pkgerrors.CodeValidation, "platform address does not match platform settings")
)

// Clock lets tests pin settlement timestamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// DonationResult reports the campaign state and ledger entry after a
// donation settles.
type DonationResult struct {
	Campaign *models.Campaign
	Entry    *models.LedgerEntry
}

// WithdrawalResult reports the fee split and campaign state after a
// withdrawal settles.
type WithdrawalResult struct {
	Campaign     *models.Campaign
	Entry        *models.LedgerEntry
	AmountUnits  int64
	FeeUnits     int64
	CreatorUnits int64
}

// Engine executes the funding flows. Each flow runs in one transaction with
// the campaign row locked, so concurrent donations and withdrawals against
// the same campaign serialize and no counter update is lost.
type Engine interface {
	Donate(ctx context.Context, donor uuid.UUID, campaignID, amountUnits int64) (*DonationResult, error)
	Withdraw(ctx context.Context, creator uuid.UUID, campaignID, amountUnits int64, platformAddress uuid.UUID) (*WithdrawalResult, error)
}

type engine struct {
	client       db.TxRunner
	campaignRepo campaigns.Repository
	platformRepo platform.Repository
	treasury     treasury.Treasury
	ledger       ledger.Service
	events       outbox.Emitter
	metrics      *metrics.FundingMetrics
	log          *logger.Logger
	clock        Clock
}

// NewEngine wires the funding engine. metrics may be nil in tests.
func NewEngine(
	client db.TxRunner,
	campaignRepo campaigns.Repository,
	platformRepo platform.Repository,
	ts treasury.Treasury,
	ledgerSvc ledger.Service,
	events outbox.Emitter,
	fundingMetrics *metrics.FundingMetrics,
	log *logger.Logger,
	clock Clock,
) (Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if campaignRepo == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if platformRepo == nil {
		return nil, fmt.Errorf("platform repository is required")
	}
	if ts == nil {
		return nil, fmt.Errorf("treasury is required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service is required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if clock == nil {
		clock = realClock{}
	}
	return &engine{
		client:       client,
		campaignRepo: campaignRepo,
		platformRepo: platformRepo,
		treasury:     ts,
		ledger:       ledgerSvc,
		events:       events,
		metrics:      fundingMetrics,
		log:          log,
		clock:        clock,
	}, nil
}

func (e *engine) Donate(ctx context.Context, donor uuid.UUID, campaignID, amountUnits int64) (*DonationResult, error) {
	result := &DonationResult{}
	err := e.client.WithTx(ctx, func(tx *gorm.DB) error {
		campaign, err := e.campaignRepo.WithTx(tx).FindByIDForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if !campaign.Active {
			return campaigns.ErrInactiveCampaign
		}
		if amountUnits < MinDonationUnits {
			return ErrInvalidDonationAmount
		}
		if campaign.AmountRaisedUnits >= campaign.GoalUnits {
			return ErrCampaignGoalActualized
		}

		ts := e.treasury.WithTx(tx)
		if err := ts.Transfer(ctx, donor, campaign.CustodyAccountID, amountUnits); err != nil {
			return err
		}

		if err := e.campaignRepo.WithTx(tx).ApplyDonation(ctx, campaignID, amountUnits); err != nil {
			return err
		}
		campaign.AmountRaisedUnits += amountUnits
		campaign.BalanceUnits += amountUnits
		campaign.Donors++

		occurredAt := e.clock.Now()
		entry, err := e.ledger.Record(ctx, tx, ledger.Entry{
			CampaignID:    campaignID,
			OwnerIdentity: donor,
			AmountUnits:   amountUnits,
			Credited:      true,
			Seq:           campaign.Donors,
			OccurredAt:    occurredAt,
		})
		if err != nil {
			return err
		}

		result.Campaign = campaign
		result.Entry = entry

		return e.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeDonationReceived,
			AggregateType: enums.OutboxAggregateTypeLedgerEntry,
			AggregateID:   strconv.FormatInt(campaignID, 10),
			Actor:         &outbox.ActorRef{Identity: donor},
			Data: payloads.DonationReceived{
				CampaignID:        campaignID,
				DonorIdentity:     donor,
				AmountUnits:       amountUnits,
				AmountRaisedUnits: campaign.AmountRaisedUnits,
				BalanceUnits:      campaign.BalanceUnits,
				Seq:               campaign.Donors,
				OccurredAt:        occurredAt,
			},
			Version: 1,
		})
	})
	if err != nil {
		e.metrics.IncRejection("donate", rejectionReason(err))
		return nil, err
	}

	e.metrics.ObserveDonation(amountUnits)
	e.log.Info(e.log.WithCampaignID(ctx, campaignID), "donation settled")
	return result, nil
}

func (e *engine) Withdraw(ctx context.Context, creator uuid.UUID, campaignID, amountUnits int64, platformAddress uuid.UUID) (*WithdrawalResult, error) {
	result := &WithdrawalResult{AmountUnits: amountUnits}
	err := e.client.WithTx(ctx, func(tx *gorm.DB) error {
		campaign, err := e.campaignRepo.WithTx(tx).FindByIDForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign.CreatorIdentity != creator {
			return campaigns.ErrNotCampaignCreator
		}
		if amountUnits < MinWithdrawalUnits {
			return ErrInvalidWithdrawalAmount
		}
		if amountUnits > campaign.BalanceUnits {
			return campaigns.ErrWithdrawalExceedsBalance
		}

		state, err := e.platformRepo.WithTx(tx).Get(ctx)
		if err != nil {
			return err
		}
		if platformAddress != state.PlatformIdentity {
			return ErrInvalidPlatformAddress
		}

		ts := e.treasury.WithTx(tx)
		account, err := ts.Account(ctx, campaign.CustodyAccountID)
		if err != nil {
			return err
		}
		reserveUnits, err := ts.MinimumReserve(ctx, campaign.CustodyAccountID)
		if err != nil {
			return err
		}
		if amountUnits > account.BalanceUnits-reserveUnits {
			return treasury.ErrInsufficientFunds
		}

		feeUnits := amountUnits * state.PlatformFeePercent / 100
		creatorUnits := amountUnits - feeUnits

		if err := ts.Transfer(ctx, campaign.CustodyAccountID, creator, creatorUnits); err != nil {
			return err
		}
		if feeUnits > 0 {
			if err := ts.Transfer(ctx, campaign.CustodyAccountID, state.PlatformIdentity, feeUnits); err != nil {
				return err
			}
		}

		if err := e.campaignRepo.WithTx(tx).ApplyWithdrawal(ctx, campaignID, amountUnits); err != nil {
			return err
		}
		campaign.BalanceUnits -= amountUnits
		campaign.Withdrawals++

		occurredAt := e.clock.Now()
		entry, err := e.ledger.Record(ctx, tx, ledger.Entry{
			CampaignID:    campaignID,
			OwnerIdentity: creator,
			AmountUnits:   amountUnits,
			Credited:      false,
			Seq:           campaign.Withdrawals,
			OccurredAt:    occurredAt,
		})
		if err != nil {
			return err
		}

		result.Campaign = campaign
		result.Entry = entry
		result.FeeUnits = feeUnits
		result.CreatorUnits = creatorUnits

		return e.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeWithdrawalSettled,
			AggregateType: enums.OutboxAggregateTypeLedgerEntry,
			AggregateID:   strconv.FormatInt(campaignID, 10),
			Actor:         &outbox.ActorRef{Identity: creator},
			Data: payloads.WithdrawalSettled{
				CampaignID:      campaignID,
				CreatorIdentity: creator,
				AmountUnits:     amountUnits,
				FeeUnits:        feeUnits,
				CreatorUnits:    creatorUnits,
				BalanceUnits:    campaign.BalanceUnits,
				Seq:             campaign.Withdrawals,
				OccurredAt:      occurredAt,
			},
			Version: 1,
		})
	})
	if err != nil {
		e.metrics.IncRejection("withdraw", rejectionReason(err))
		return nil, err
	}

	e.metrics.ObserveWithdrawal(amountUnits, result.FeeUnits)
	e.log.Info(e.log.WithCampaignID(ctx, campaignID), "withdrawal settled")
	return result, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, campaigns.ErrCampaignNotFound):
		return "campaign_not_found"
	case errors.Is(err, campaigns.ErrInactiveCampaign):
		return "inactive_campaign"
	case errors.Is(err, campaigns.ErrNotCampaignCreator):
		return "not_creator"
	case errors.Is(err, campaigns.ErrWithdrawalExceedsBalance):
		return "exceeds_balance"
	case errors.Is(err, ErrInvalidDonationAmount), errors.Is(err, ErrInvalidWithdrawalAmount):
		return "invalid_amount"
	case errors.Is(err, ErrCampaignGoalActualized):
		return "goal_actualized"
	case errors.Is(err, ErrInvalidPlatformAddress):
		return "invalid_platform_address"
	case errors.Is(err, treasury.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, treasury.ErrAccountNotFound):
		return "account_not_found"
	default:
		return "internal"
	}
}
