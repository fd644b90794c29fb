package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FundingMetrics records fund movement counters for the custody engine.
type FundingMetrics struct {
	donations       prometheus.Counter
	donationUnits   prometheus.Counter
	withdrawals     prometheus.Counter
	withdrawalUnits prometheus.Counter
	feeUnits        prometheus.Counter
	rejections      *prometheus.CounterVec
}

// NewFundingMetrics registers the funding metrics on the provided registerer.
func NewFundingMetrics(reg prometheus.Registerer) *FundingMetrics {
	if reg == nil {
		return &FundingMetrics{}
	}
	donations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "funding_donations_total",
		Help: "Accepted donations.",
	})
	donationUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "funding_donation_units_total",
		Help: "Donated value in smallest denomination units.",
	})
	withdrawals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "funding_withdrawals_total",
		Help: "Settled withdrawals.",
	})
	withdrawalUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "funding_withdrawal_units_total",
		Help: "Withdrawn value in smallest denomination units.",
	})
	feeUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "funding_platform_fee_units_total",
		Help: "Platform fee value collected in smallest denomination units.",
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "funding_rejections_total",
		Help: "Rejected fund movements by reason.",
	}, []string{"operation", "reason"})
	reg.MustRegister(donations, donationUnits, withdrawals, withdrawalUnits, feeUnits, rejections)
	return &FundingMetrics{
		donations:       donations,
		donationUnits:   donationUnits,
		withdrawals:     withdrawals,
		withdrawalUnits: withdrawalUnits,
		feeUnits:        feeUnits,
		rejections:      rejections,
	}
}

// ObserveDonation records an accepted donation of the given unit amount.
func (m *FundingMetrics) ObserveDonation(amountUnits int64) {
	if m == nil || m.donations == nil {
		return
	}
	m.donations.Inc()
	m.donationUnits.Add(float64(amountUnits))
}

// ObserveWithdrawal records a settled withdrawal and its fee split.
func (m *FundingMetrics) ObserveWithdrawal(amountUnits, feeUnits int64) {
	if m == nil || m.withdrawals == nil {
		return
	}
	m.withdrawals.Inc()
	m.withdrawalUnits.Add(float64(amountUnits))
	m.feeUnits.Add(float64(feeUnits))
}

// IncRejection counts a rejected fund movement.
func (m *FundingMetrics) IncRejection(operation, reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejections.WithLabelValues(operation, reason).Inc()
}
