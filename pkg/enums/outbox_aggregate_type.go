package enums

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateTypeCampaign    OutboxAggregateType = "campaign"
	OutboxAggregateTypeLedgerEntry OutboxAggregateType = "ledger_entry"
)

// IsValid reports whether the value is a known aggregate type.
func (t OutboxAggregateType) IsValid() bool {
	switch t {
	case OutboxAggregateTypeCampaign, OutboxAggregateTypeLedgerEntry:
		return true
	}
	return false
}
