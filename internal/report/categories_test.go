package report

import (
	"testing"
	"time"

	"github.com/eqty-dao/treasury/internal/ledger"
)

func rollupFixture() ([]MonthlySnapshot, ledger.Index) {
	idx := ledger.NewIndex([]ledger.Account{
		{ID: "1", Name: "Operations"},
		{ID: "2", Name: "Hosting", ParentID: "1"},
		{ID: "5", Name: "Payroll"},
	})

	months := []MonthlySnapshot{
		{
			Month:                   "2025-01",
			CashPaidByLedgerAccount: map[string]string{"2": "-100.00", "5": "-40.00"},
		},
		{
			Month:                   "2025-02",
			CashPaidByLedgerAccount: map[string]string{"2": "-60.00"},
		},
	}
	return months, idx
}

func TestBuildCategoryRollup_LatestMonth(t *testing.T) {
	months, idx := rollupFixture()
	now := time.Date(2025, time.August, 28, 0, 0, 0, 0, time.UTC)

	got := BuildCategoryRollup(ScopeLatestMonth, months, idx, "EUR", now)

	if got.Scope != ScopeLatestMonth || got.Month != "2025-02" {
		t.Errorf("scope/month = %q/%q", got.Scope, got.Month)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(got.Rows))
	}
	if got.Rows[0].GroupID != "1" || got.Rows[0].Name != "Operations" || got.Rows[0].Total != "60" {
		t.Errorf("row = %+v", got.Rows[0])
	}
	if got.GrandTotal != "60" {
		t.Errorf("grandTotal = %q, want 60", got.GrandTotal)
	}
}

func TestBuildCategoryRollup_YearToDate(t *testing.T) {
	months, idx := rollupFixture()

	got := BuildCategoryRollup(ScopeYearToDate, months, idx, "EUR", time.Now())

	if len(got.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(got.Rows))
	}
	// Sorted by spent total descending.
	if got.Rows[0].GroupID != "1" || got.Rows[0].Total != "160" {
		t.Errorf("rows[0] = %+v, want group 1 total 160", got.Rows[0])
	}
	if got.Rows[1].GroupID != "5" || got.Rows[1].Total != "40" {
		t.Errorf("rows[1] = %+v, want group 5 total 40", got.Rows[1])
	}
	if got.GrandTotal != "200" {
		t.Errorf("grandTotal = %q, want 200", got.GrandTotal)
	}
}

func TestBuildCategoryRollup_UnknownGroupGetsFallbackName(t *testing.T) {
	months := []MonthlySnapshot{
		{Month: "2025-01", CashPaidByLedgerAccount: map[string]string{"77": "-5.00"}},
	}

	got := BuildCategoryRollup(ScopeYearToDate, months, ledger.Index{}, "EUR", time.Now())

	if len(got.Rows) != 1 || got.Rows[0].Name != "Ledger 77" {
		t.Errorf("rows = %+v, want fallback name Ledger 77", got.Rows)
	}
}

func TestBuildCategoryRollup_Empty(t *testing.T) {
	got := BuildCategoryRollup(ScopeYearToDate, nil, ledger.Index{}, "EUR", time.Now())
	if len(got.Rows) != 0 || got.GrandTotal != "0" {
		t.Errorf("empty rollup = %+v", got)
	}
}
