package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/crowdvault/crowdvault-backend/pkg/db/models"
)

type platformView struct {
	Initialized        bool      `json:"initialized"`
	CampaignCount      int64     `json:"campaign_count"`
	PlatformFeePercent int64     `json:"platform_fee_percent"`
	PlatformIdentity   uuid.UUID `json:"platform_identity"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func newPlatformView(state *models.PlatformState) platformView {
	return platformView{
		Initialized:        state.Initialized,
		CampaignCount:      state.CampaignCount,
		PlatformFeePercent: state.PlatformFeePercent,
		PlatformIdentity:   state.PlatformIdentity,
		UpdatedAt:          state.UpdatedAt,
	}
}

type campaignView struct {
	ID                int64     `json:"id"`
	CreatorIdentity   uuid.UUID `json:"creator_identity"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	ImageURL          string    `json:"image_url"`
	GoalUnits         int64     `json:"goal_units"`
	AmountRaisedUnits int64     `json:"amount_raised_units"`
	BalanceUnits      int64     `json:"balance_units"`
	Donors            int64     `json:"donors"`
	Withdrawals       int64     `json:"withdrawals"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newCampaignView(campaign *models.Campaign) campaignView {
	return campaignView{
		ID:                campaign.ID,
		CreatorIdentity:   campaign.CreatorIdentity,
		Title:             campaign.Title,
		Description:       campaign.Description,
		ImageURL:          campaign.ImageURL,
		GoalUnits:         campaign.GoalUnits,
		AmountRaisedUnits: campaign.AmountRaisedUnits,
		BalanceUnits:      campaign.BalanceUnits,
		Donors:            campaign.Donors,
		Withdrawals:       campaign.Withdrawals,
		Active:            campaign.Active,
		CreatedAt:         campaign.CreatedAt,
		UpdatedAt:         campaign.UpdatedAt,
	}
}

func newCampaignViews(campaigns []models.Campaign) []campaignView {
	views := make([]campaignView, 0, len(campaigns))
	for i := range campaigns {
		views = append(views, newCampaignView(&campaigns[i]))
	}
	return views
}

type ledgerEntryView struct {
	ID            uuid.UUID `json:"id"`
	CampaignID    int64     `json:"campaign_id"`
	OwnerIdentity uuid.UUID `json:"owner_identity"`
	AmountUnits   int64     `json:"amount_units"`
	Credited      bool      `json:"credited"`
	Seq           int64     `json:"seq"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func newLedgerEntryView(entry *models.LedgerEntry) ledgerEntryView {
	return ledgerEntryView{
		ID:            entry.ID,
		CampaignID:    entry.CampaignID,
		OwnerIdentity: entry.OwnerIdentity,
		AmountUnits:   entry.AmountUnits,
		Credited:      entry.Credited,
		Seq:           entry.Seq,
		OccurredAt:    entry.OccurredAt,
	}
}

func newLedgerEntryViews(entries []models.LedgerEntry) []ledgerEntryView {
	views := make([]ledgerEntryView, 0, len(entries))
	for i := range entries {
		views = append(views, newLedgerEntryView(&entries[i]))
	}
	return views
}
