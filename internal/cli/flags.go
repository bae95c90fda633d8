package cli

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

var (
	_ pflag.Value = (*decimalFlag)(nil)
	_ pflag.Value = (*dayFlag)(nil)
)

// decimalFlag is an optional non-negative decimal flag. A comma works as
// the decimal separator, so "--points 1,5" is 1.5.
type decimalFlag struct {
	field string
	value *decimal.Decimal
}

func newDecimalFlag(field string) *decimalFlag {
	return &decimalFlag{field: field}
}

func (f *decimalFlag) String() string {
	if f.value == nil {
		return ""
	}
	return f.value.String()
}

func (f *decimalFlag) Set(s string) error {
	v, err := domain.ParseDecimal(f.field, s)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

func (f *decimalFlag) Type() string { return "decimal" }

// dayFlag is a YYYY-MM-DD date flag.
type dayFlag struct {
	value time.Time
}

func (f *dayFlag) String() string {
	if f.value.IsZero() {
		return ""
	}
	return f.value.Format(domain.DateLayout)
}

func (f *dayFlag) Set(s string) error {
	t, err := domain.ParseDay(s)
	if err != nil {
		return err
	}
	f.value = t
	return nil
}

func (f *dayFlag) Type() string { return "date" }

// or returns the flag's day, or fallback when it was not given.
func (f *dayFlag) or(fallback time.Time) time.Time {
	if f.value.IsZero() {
		return fallback
	}
	return f.value
}
