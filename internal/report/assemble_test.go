package report

import (
	"testing"
	"time"
)

func series() []MonthlySnapshot {
	return []MonthlySnapshot{
		{
			Month: "2025-01", MutationCount: 3,
			OpeningBalance: "1000.00", ClosingBalance: "1100.00",
			CashReceivedTotal: "200.00", CashPaidTotal: "100.00", NetCashFlow: "100.00",
		},
		{
			Month: "2025-02", MutationCount: 5,
			OpeningBalance: "1100.00", ClosingBalance: "900.00",
			CashReceivedTotal: "50.00", CashPaidTotal: "250.00", NetCashFlow: "-200.00",
		},
	}
}

func TestYtdTotals(t *testing.T) {
	got := YtdTotals(series())

	if got.MutationCount != 8 {
		t.Errorf("mutationCount = %d, want 8", got.MutationCount)
	}
	if got.CashReceivedTotal != "250.00" {
		t.Errorf("cashReceivedTotal = %q, want 250.00", got.CashReceivedTotal)
	}
	if got.CashPaidTotal != "350.00" {
		t.Errorf("cashPaidTotal = %q, want 350.00", got.CashPaidTotal)
	}
	if got.NetCashFlow != "-100.00" {
		t.Errorf("netCashFlow = %q, want -100.00", got.NetCashFlow)
	}
}

func TestYtdTotals_Empty(t *testing.T) {
	got := YtdTotals(nil)
	if got.MutationCount != 0 || got.NetCashFlow != "0" {
		t.Errorf("empty totals = %+v", got)
	}
}

func TestAssemble(t *testing.T) {
	meta := AccountMeta{ID: "123", Type: "bank_account", Currency: "EUR"}
	now := time.Date(2025, time.August, 28, 9, 0, 0, 0, time.UTC)

	got := Assemble(meta, "999", 2025, series(), now)

	if got.GeneratedAt != "2025-08-28T09:00:00Z" {
		t.Errorf("generatedAt = %q", got.GeneratedAt)
	}
	if got.AdministrationID != "999" || got.Year != "2025" {
		t.Errorf("administrationId/year = %q/%q", got.AdministrationID, got.Year)
	}
	if got.Current == nil {
		t.Fatal("current should be set for a non-empty series")
	}
	if got.Current.Month != "2025-02" || got.Current.ClosingBalance != "900.00" {
		t.Errorf("current = %+v, want last snapshot's balances", got.Current)
	}
	if got.TotalsYtd.MutationCount != 8 {
		t.Errorf("totalsYtd.mutationCount = %d, want 8", got.TotalsYtd.MutationCount)
	}
}

func TestAssemble_EmptySeries(t *testing.T) {
	got := Assemble(AccountMeta{ID: "123"}, "999", 2024, nil, time.Now())
	if got.Current != nil {
		t.Errorf("current = %+v, want nil for empty series", got.Current)
	}
}

func TestNullable(t *testing.T) {
	if Nullable("") != nil {
		t.Error("Nullable(\"\") should be nil")
	}
	if got := Nullable("x"); got == nil || *got != "x" {
		t.Errorf("Nullable(\"x\") = %v", got)
	}
}
