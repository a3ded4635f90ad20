package moneybird

import (
	"fmt"
	"time"
)

// MonthPeriod renders the report-period token for one calendar month in the
// API's range form, e.g. "20250301..20250331".
func MonthPeriod(year int, m time.Month) string {
	last := daysInMonth(year, m)
	return fmt.Sprintf("%04d%02d01..%04d%02d%02d", year, int(m), year, int(m), last)
}

func daysInMonth(year int, m time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
