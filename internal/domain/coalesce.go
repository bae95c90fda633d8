package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day layout used across storage and the CLI.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Message: fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", s)}
	}
	return t, nil
}

// ParseDecimal parses a non-negative decimal, accepting a comma as the
// decimal separator ("1,5" == "1.5"). Blank input yields nil.
func ParseDecimal(field, raw string) (*decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("%s: invalid number %q", field, raw)}
	}
	if v.IsNegative() {
		return nil, &ValidationError{Message: fmt.Sprintf("%s must not be negative, got %s", field, raw)}
	}
	return &v, nil
}

// ParseStoryPoints normalizes a story-points value from the tracker.
func ParseStoryPoints(raw string) (*decimal.Decimal, error) {
	return ParseDecimal("story points", raw)
}

// DecimalOrZero dereferences d, treating nil as zero.
func DecimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// StrPtr returns nil for an empty string, otherwise a pointer to s.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
