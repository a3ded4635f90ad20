package report

import (
	"testing"
	"time"
)

func TestBuildMonth_NetFromBalanceDelta(t *testing.T) {
	cf := CashFlow{
		OpeningBalance: "1000.00",
		ClosingBalance: "750.00",
		// Deliberately inconsistent with the balance delta; the report maps
		// use their own sign convention.
		ReceivedByLedger: map[string]string{"41": "500.00"},
		PaidByLedger:     map[string]string{"42": "100.00"},
	}

	got := BuildMonth(2025, time.March, "20250301..20250331", cf, 7)

	if got.NetCashFlow != "-250.00" {
		t.Errorf("netCashFlow = %q, want -250.00", got.NetCashFlow)
	}
	if got.CashReceivedTotal != "500.00" {
		t.Errorf("cashReceivedTotal = %q, want 500.00", got.CashReceivedTotal)
	}
	if got.CashPaidTotal != "100.00" {
		t.Errorf("cashPaidTotal = %q, want 100.00", got.CashPaidTotal)
	}
	if got.Month != "2025-03" {
		t.Errorf("month = %q, want 2025-03", got.Month)
	}
	if got.Period != "20250301..20250331" {
		t.Errorf("period = %q", got.Period)
	}
	if got.MutationCount != 7 {
		t.Errorf("mutationCount = %d, want 7", got.MutationCount)
	}
}

func TestBuildMonth_MissingBalancesAreZero(t *testing.T) {
	got := BuildMonth(2025, time.January, "20250101..20250131", CashFlow{}, 0)

	if got.NetCashFlow != "0" {
		t.Errorf("netCashFlow = %q, want 0", got.NetCashFlow)
	}
	if got.CashReceivedByLedgerAccount == nil || got.CashPaidByLedgerAccount == nil {
		t.Error("breakdown maps should be empty, not nil")
	}
}

func TestMonthsInYear(t *testing.T) {
	now := time.Date(2025, time.August, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		year int
		want time.Month
	}{
		{name: "current year stops at current month", year: 2025, want: time.August},
		{name: "past year runs through December", year: 2024, want: time.December},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsInYear(tt.year, now); got != tt.want {
				t.Errorf("MonthsInYear(%d) = %v, want %v", tt.year, got, tt.want)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(2025, time.February); got != "2025-02" {
		t.Errorf("MonthKey = %q, want 2025-02", got)
	}
}
