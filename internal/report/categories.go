package report

import (
	"sort"
	"time"

	"github.com/eqty-dao/treasury/internal/ledger"
)

// Category rollup scopes.
const (
	ScopeLatestMonth = "latest-month"
	ScopeYearToDate  = "year-to-date"
)

// Hierarchies rarely have more than a dozen meaningful top-level groups;
// the long tail is noise on the published card.
const maxRollupRows = 12

// GroupRow is one resolved top-level group with its accumulated spent total.
type GroupRow struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
	Total   string `json:"total"`
}

// CategoryRollup is the published spend-by-category document for one scope.
type CategoryRollup struct {
	GeneratedAt string     `json:"generatedAt"`
	Scope       string     `json:"scope"`
	Month       string     `json:"month,omitempty"`
	Currency    string     `json:"currency"`
	Rows        []GroupRow `json:"rows"`
	GrandTotal  string     `json:"grandTotal"`
}

// BuildCategoryRollup aggregates the paid-by-ledger-account maps of the
// series into top-level group totals for the requested scope: the latest
// month alone, or every month of the series summed entrywise.
func BuildCategoryRollup(scope string, months []MonthlySnapshot, idx ledger.Index, currency string, generatedAt time.Time) CategoryRollup {
	doc := CategoryRollup{
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Scope:       scope,
		Currency:    currency,
		Rows:        []GroupRow{},
		GrandTotal:  "0",
	}
	if len(months) == 0 {
		return doc
	}

	totals := ledger.GroupTotals{}
	switch scope {
	case ScopeLatestMonth:
		latest := months[len(months)-1]
		doc.Month = latest.Month
		totals = ledger.SpentByGroup(latest.CashPaidByLedgerAccount, idx)
	default:
		for _, m := range months {
			totals.Merge(ledger.SpentByGroup(m.CashPaidByLedgerAccount, idx))
		}
	}

	rows := make([]GroupRow, 0, len(totals))
	for groupID, total := range totals {
		name := idx.Name(groupID)
		if name == "" {
			name = "Ledger " + groupID
		}
		rows = append(rows, GroupRow{GroupID: groupID, Name: name, Total: total.String()})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := totals[rows[i].GroupID], totals[rows[j].GroupID]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return rows[i].GroupID < rows[j].GroupID
	})
	if len(rows) > maxRollupRows {
		rows = rows[:maxRollupRows]
	}

	doc.Rows = rows
	doc.GrandTotal = totals.GrandTotal().String()
	return doc
}
