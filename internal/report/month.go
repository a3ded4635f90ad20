// Package report assembles the published document shapes: the monthly
// series, the account summary, the category rollups, and the chain
// snapshots. All monetary fields are decimal strings; they are converted to
// numeric form only transiently for arithmetic.
package report

import (
	"fmt"
	"time"

	"github.com/eqty-dao/treasury/internal/money"
)

// CashFlow is the per-period input from the accounting source: balances plus
// the received/paid breakdowns keyed by ledger-account id.
type CashFlow struct {
	OpeningBalance   string
	ClosingBalance   string
	ReceivedByLedger map[string]string
	PaidByLedger     map[string]string
}

// MonthlySnapshot is one calendar month of an account's activity.
type MonthlySnapshot struct {
	Month         string `json:"month"`
	Period        string `json:"period"`
	MutationCount int    `json:"mutationCount"`

	OpeningBalance string `json:"openingBalance"`
	ClosingBalance string `json:"closingBalance"`

	CashReceivedTotal string `json:"cashReceivedTotal"`
	CashPaidTotal     string `json:"cashPaidTotal"`

	NetCashFlow string `json:"netCashFlow"`

	CashReceivedByLedgerAccount map[string]string `json:"cashReceivedByLedgerAccount"`
	CashPaidByLedgerAccount     map[string]string `json:"cashPaidByLedgerAccount"`
}

// BuildMonth assembles one monthly snapshot from a fetched cash-flow report
// and the independently fetched mutation count.
//
// Net cash flow is derived strictly from the balance delta. The report's
// received/paid maps use a source-defined sign convention that may disagree
// with that delta; their sums are published as informational totals and the
// discrepancy is preserved, not reconciled.
func BuildMonth(year int, m time.Month, period string, cf CashFlow, mutationCount int) MonthlySnapshot {
	opening := money.Parse(cf.OpeningBalance)
	closing := money.Parse(cf.ClosingBalance)

	received := cf.ReceivedByLedger
	if received == nil {
		received = map[string]string{}
	}
	paid := cf.PaidByLedger
	if paid == nil {
		paid = map[string]string{}
	}

	return MonthlySnapshot{
		Month:         MonthKey(year, m),
		Period:        period,
		MutationCount: mutationCount,

		OpeningBalance: money.Format(opening),
		ClosingBalance: money.Format(closing),

		CashReceivedTotal: money.Format(money.SumMap(received)),
		CashPaidTotal:     money.Format(money.SumMap(paid)),

		NetCashFlow: money.Format(closing.Sub(opening)),

		CashReceivedByLedgerAccount: received,
		CashPaidByLedgerAccount:     paid,
	}
}

// MonthKey renders a calendar month as "YYYY-MM".
func MonthKey(year int, m time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(m))
}

// MonthsInYear returns the last month to report for year: the current month
// when year is the current year, otherwise December. This is the
// reporting-period boundary, not a data condition.
func MonthsInYear(year int, now time.Time) time.Month {
	if year == now.Year() {
		return now.Month()
	}
	return time.December
}
