package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFundingMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFundingMetrics(reg)

	m.ObserveDonation(1_500_000_000)
	m.ObserveDonation(600_000_000)
	m.ObserveWithdrawal(1_000_000_000, 50_000_000)
	m.IncRejection("donate", "goal_reached")

	if got := testutil.ToFloat64(m.donations); got != 2 {
		t.Fatalf("donations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.donationUnits); got != 2_100_000_000 {
		t.Fatalf("donation units = %v", got)
	}
	if got := testutil.ToFloat64(m.withdrawalUnits); got != 1_000_000_000 {
		t.Fatalf("withdrawal units = %v", got)
	}
	if got := testutil.ToFloat64(m.feeUnits); got != 50_000_000 {
		t.Fatalf("fee units = %v", got)
	}
	if got := testutil.ToFloat64(m.rejections.WithLabelValues("donate", "goal_reached")); got != 1 {
		t.Fatalf("rejections = %v", got)
	}
}

func TestFundingMetricsNilSafe(t *testing.T) {
	var m *FundingMetrics
	m.ObserveDonation(1)
	m.ObserveWithdrawal(1, 1)
	m.IncRejection("withdraw", "")

	empty := NewFundingMetrics(nil)
	empty.ObserveDonation(1)
	empty.IncRejection("donate", "")
}
