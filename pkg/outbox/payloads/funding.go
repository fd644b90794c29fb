package payloads

import (
	"time"

	"github.com/google/uuid"
)

// CampaignCreated is emitted when a creator registers a campaign.
type CampaignCreated struct {
	CampaignID      int64     `json:"campaignId"`
	CreatorIdentity uuid.UUID `json:"creatorIdentity"`
	Title           string    `json:"title"`
	GoalUnits       int64     `json:"goalUnits"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CampaignDeactivated is emitted when a campaign is soft-deleted.
type CampaignDeactivated struct {
	CampaignID      int64     `json:"campaignId"`
	CreatorIdentity uuid.UUID `json:"creatorIdentity"`
}

// DonationReceived is emitted when a donation settles into custody.
type DonationReceived struct {
	CampaignID        int64     `json:"campaignId"`
	DonorIdentity     uuid.UUID `json:"donorIdentity"`
	AmountUnits       int64     `json:"amountUnits"`
	AmountRaisedUnits int64     `json:"amountRaisedUnits"`
	BalanceUnits      int64     `json:"balanceUnits"`
	Seq               int64     `json:"seq"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// WithdrawalSettled is emitted when a withdrawal and its fee split settle.
type WithdrawalSettled struct {
	CampaignID      int64     `json:"campaignId"`
	CreatorIdentity uuid.UUID `json:"creatorIdentity"`
	AmountUnits     int64     `json:"amountUnits"`
	FeeUnits        int64     `json:"feeUnits"`
	CreatorUnits    int64     `json:"creatorUnits"`
	BalanceUnits    int64     `json:"balanceUnits"`
	Seq             int64     `json:"seq"`
	OccurredAt      time.Time `json:"occurredAt"`
}
