package donations

import (
	"fmt"
	"time"
)

// NewReceiptNumber builds a receipt number of the form WCT-YYYYMM-NNNNNN.
// The trailing digits come from the millisecond clock, so collisions are
// possible under load; callers retry against the unique index.
func NewReceiptNumber(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("WCT-%s-%06d", now.Format("200601"), now.UnixMilli()%1000000)
}

// FinancialYear returns the Indian financial year containing t, formatted
// like "2025-26". The year runs April through March.
func FinancialYear(t time.Time) string {
	t = t.UTC()
	year := t.Year()
	if t.Month() >= time.April {
		return fmt.Sprintf("%d-%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}
