package calculator

import (
	"fmt"
	"time"
)

// ParseCutoff accepts "YYYY-MM-DD" or "MMYYYY". A month means its first day,
// midnight UTC.
func ParseCutoff(s string) (time.Time, error) {
	if len(s) == 6 {
		return parseMonth(s)
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("cutoff: expected YYYY-MM-DD or MMYYYY, got %q", s)
	}
	return t, nil
}

// parseMonth("MMYYYY") -> first day of the month, UTC
func parseMonth(mmyyyy string) (time.Time, error) {
	if len(mmyyyy) != 6 {
		return time.Time{}, fmt.Errorf("expected MMYYYY (e.g. 122010)")
	}
	for _, c := range mmyyyy {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("expected MMYYYY (e.g. 122010)")
		}
	}
	month := int(mmyyyy[0]-'0')*10 + int(mmyyyy[1]-'0')
	year := int(mmyyyy[2]-'0')*1000 + int(mmyyyy[3]-'0')*100 + int(mmyyyy[4]-'0')*10 + int(mmyyyy[5]-'0')
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month")
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}
