package donations

import (
	"regexp"
	"testing"
	"time"
)

func TestNewReceiptNumberFormat(t *testing.T) {
	now := time.Date(2025, time.September, 1, 10, 30, 0, 0, time.UTC)
	got := NewReceiptNumber(now)

	matched, err := regexp.MatchString(`^WCT-202509-\d{6}$`, got)
	if err != nil {
		t.Fatalf("regexp: %v", err)
	}
	if !matched {
		t.Fatalf("receipt number %q does not match expected shape", got)
	}
}

func TestFinancialYear(t *testing.T) {
	cases := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), "2025-26"},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "2025-26"},
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2025-26"},
		{time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), "2025-26"},
		{time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC), "2026-27"},
		{time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), "2023-24"},
	}

	for _, tc := range cases {
		if got := FinancialYear(tc.date); got != tc.want {
			t.Errorf("FinancialYear(%s) = %q, want %q", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}
