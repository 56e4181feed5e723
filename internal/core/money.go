package core

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

// Amount is a lira amount in kuruş (minor units)
type Amount int64

var (
	plainAmountPattern   = regexp.MustCompile(`^\d+(,\d{1,2})?$`)
	groupedAmountPattern = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d{1,2})?$`)
)

// ParseAmount parses a Turkish-formatted amount such as "5000,13" or "5.000,13"
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if !plainAmountPattern.MatchString(s) && !groupedAmountPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}

	normalized := strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedAmount, s, err)
	}
	minor := d.Shift(2)
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrMalformedAmount, s)
	}
	return Amount(minor.IntPart()), nil
}

// Divide splits the amount into n parts, dropping the remainder
func (a Amount) Divide(n int) Amount {
	return Amount(int64(a) / int64(n))
}

// String formats the amount for display, e.g. "5.000,13"
func (a Amount) String() string {
	return FormatLira(a)
}

// FormatLira formats an amount with "." grouping and a "," decimal separator
func FormatLira(a Amount) string {
	// Accounting initializes itself lazily, so it is not shared between goroutines.
	ac := accounting.Accounting{Precision: 2, Thousand: ".", Decimal: ","}
	return ac.FormatMoneyBigRat(big.NewRat(int64(a), 100))
}

// WireString formats the amount the way the gateway expects it in requests, e.g. "5000,13"
func (a Amount) WireString() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d,%02d", sign, v/100, v%100)
}
