package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyAmount   = errors.New("empty amount")
	ErrInvalidAmount = errors.New("invalid amount")
)

var (
	// currencyMarkers are stripped from amount cells along with spaces.
	currencyMarkers = strings.NewReplacer("SAR", "", "sar", "", "ر.س", "", "\uFDFC", "", "ريال", "", "ریال", "", " ", "", "\u00a0", "")
	// leadingNumber rescues cells such as "12.5 cr".
	leadingNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)
)

// ParseAmount parses a statement amount cell. It accepts thousands separators,
// currency markers, a leading or trailing minus ("1,235.50-") and accounting
// parentheses ("(45.00)").
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if inner, ok := strings.CutPrefix(s, "("); ok {
		if inner, ok = strings.CutSuffix(inner, ")"); ok {
			negative, s = true, inner
		}
	}
	s = currencyMarkers.Replace(s)
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		negative = true
	}
	s = strings.TrimPrefix(strings.NewReplacer("-", "", ",", "").Replace(s), "+")

	d, err := decimal.NewFromString(s)
	if err != nil {
		head := strings.TrimSuffix(leadingNumber.FindString(s), ".")
		if d, err = decimal.NewFromString(head); head == "" || err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseAmountFloat is ParseAmount converted to float64.
func ParseAmountFloat(raw string) (float64, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
