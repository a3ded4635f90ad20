package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eqty-dao/treasury/internal/money"
)

// AccountMeta is the published description of a financial account. Only safe
// metadata; identifiers and IBANs never leave the fetch layer.
type AccountMeta struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Name      *string `json:"name"`
	Currency  string  `json:"currency"`
	Provider  *string `json:"provider"`
	Active    bool    `json:"active"`
	UpdatedAt string  `json:"updated_at"`
}

// CurrentBalance is the most recent month's balance pair.
type CurrentBalance struct {
	Month          string `json:"month"`
	OpeningBalance string `json:"openingBalance"`
	ClosingBalance string `json:"closingBalance"`
}

// Totals holds the year-to-date scalar sums across the monthly series.
type Totals struct {
	MutationCount     int    `json:"mutationCount"`
	CashReceivedTotal string `json:"cashReceivedTotal"`
	CashPaidTotal     string `json:"cashPaidTotal"`
	NetCashFlow       string `json:"netCashFlow"`
}

// AccountSummary is the account.json document.
type AccountSummary struct {
	GeneratedAt      string          `json:"generatedAt"`
	AdministrationID string          `json:"administrationId"`
	Year             string          `json:"year"`
	FinancialAccount AccountMeta     `json:"financialAccount"`
	Current          *CurrentBalance `json:"current"`
	TotalsYtd        Totals          `json:"totalsYtd"`
}

// MonthlySeries is the monthly-<year>.json document, months ascending.
type MonthlySeries struct {
	GeneratedAt        string            `json:"generatedAt"`
	Year               string            `json:"year"`
	FinancialAccountID string            `json:"financialAccountId"`
	Months             []MonthlySnapshot `json:"months"`
}

// YtdTotals sums mutation counts, received/paid totals, and net cash flow
// across the series. It is recomputed on every assembly, never stored.
func YtdTotals(months []MonthlySnapshot) Totals {
	mutations := 0
	received := decimal.Zero
	paid := decimal.Zero
	net := decimal.Zero

	for _, m := range months {
		mutations += m.MutationCount
		received = received.Add(money.Parse(m.CashReceivedTotal))
		paid = paid.Add(money.Parse(m.CashPaidTotal))
		net = net.Add(money.Parse(m.NetCashFlow))
	}

	return Totals{
		MutationCount:     mutations,
		CashReceivedTotal: money.Format(received),
		CashPaidTotal:     money.Format(paid),
		NetCashFlow:       money.Format(net),
	}
}

// Assemble composes the account summary from an assembled monthly series.
// Current is the last snapshot's balances, or nil for an empty series.
func Assemble(meta AccountMeta, administrationID string, year int, months []MonthlySnapshot, generatedAt time.Time) AccountSummary {
	var current *CurrentBalance
	if len(months) > 0 {
		latest := months[len(months)-1]
		current = &CurrentBalance{
			Month:          latest.Month,
			OpeningBalance: latest.OpeningBalance,
			ClosingBalance: latest.ClosingBalance,
		}
	}

	return AccountSummary{
		GeneratedAt:      generatedAt.UTC().Format(time.RFC3339),
		AdministrationID: administrationID,
		Year:             yearString(year),
		FinancialAccount: meta,
		Current:          current,
		TotalsYtd:        YtdTotals(months),
	}
}

// Nullable maps "" to a JSON null and anything else to the string itself.
func Nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func yearString(year int) string {
	return MonthKey(year, time.January)[:4]
}
