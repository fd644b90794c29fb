package enums

import "fmt"

// OutboxEventType enumerates the domain events the outbox can carry.
type OutboxEventType string

const (
	OutboxEventTypeCampaignCreated     OutboxEventType = "campaign.created"
	OutboxEventTypeCampaignDeactivated OutboxEventType = "campaign.deactivated"
	OutboxEventTypeDonationReceived    OutboxEventType = "donation.received"
	OutboxEventTypeWithdrawalSettled   OutboxEventType = "withdrawal.settled"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventTypeCampaignCreated,
	OutboxEventTypeCampaignDeactivated,
	OutboxEventTypeDonationReceived,
	OutboxEventTypeWithdrawalSettled,
}

// IsValid reports whether the value matches the canonical event type enum.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
