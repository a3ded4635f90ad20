// Package sheets defines the port for mirroring the monthly series into a
// spreadsheet. The mirror is a convenience view for humans; the JSON
// artifacts stay the source of truth.
package sheets

import (
	"context"

	"github.com/eqty-dao/treasury/internal/report"
)

// MonthlyWriter replaces one year's monthly series in the mirror.
type MonthlyWriter interface {
	WriteMonthlySeries(ctx context.Context, year string, months []report.MonthlySnapshot) error
}
