package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/eqty-dao/treasury/internal/money"
)

// GroupTotals accumulates spent magnitudes keyed by top-level group id.
type GroupTotals map[string]decimal.Decimal

// SpentByGroup rolls a per-category amount map up into totals per top-level
// group. Amounts are taken by absolute value: the rollup reports magnitude
// of outflow, not signed flow. Malformed amounts contribute zero.
func SpentByGroup(amounts map[string]string, idx Index) GroupTotals {
	totals := make(GroupTotals)
	for categoryID, amount := range amounts {
		groupID := idx.TopGroup(categoryID)
		spent := money.Parse(amount).Abs()
		totals[groupID] = totals[groupID].Add(spent)
	}
	return totals
}

// Merge adds every entry of other into t and returns t.
//
// Summation is associative and commutative, so aggregating periods one by
// one and merging equals aggregating the union of their amount maps in a
// single pass. Year-to-date rollups rely on exactly this.
func (t GroupTotals) Merge(other GroupTotals) GroupTotals {
	for groupID, v := range other {
		t[groupID] = t[groupID].Add(v)
	}
	return t
}

// GrandTotal sums all group totals.
func (t GroupTotals) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range t {
		total = total.Add(v)
	}
	return total
}
