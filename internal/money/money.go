// Package money handles the display-string price format used by the backend.
// Prices travel as strings ("$5.00" on menu items, "8.50" on order totals);
// internally everything is integer cents so summation stays exact.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a non-negative money value in integer cents.
type Amount int64

const symbol = "$"

// ErrBadPrice marks a malformed price string. This is a logic fault: prices
// come from our own backend contract, so a parse failure means the boundary
// validation missed something. Never coerced to zero.
var ErrBadPrice = errors.New("money: malformed price")

// Parse converts a display price into cents. A single leading currency
// symbol is stripped; the remainder must be a non-negative decimal with at
// most two fractional digits.
func Parse(display string) (Amount, error) {
	s := strings.TrimPrefix(strings.TrimSpace(display), symbol)
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrBadPrice, display)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if frac == "" || len(frac) > 2 {
			return 0, fmt.Errorf("%w: %q", ErrBadPrice, display)
		}
	}

	dollars, err := strconv.ParseUint(whole, 10, 63)
	if err != nil || dollars > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("%w: %q", ErrBadPrice, display)
	}
	cents := uint64(0)
	if frac != "" {
		cents, err = strconv.ParseUint(frac, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadPrice, display)
		}
		if len(frac) == 1 {
			cents *= 10
		}
	}
	return Amount(dollars*100 + cents), nil
}

// Format renders the amount with the currency symbol and exactly two
// fractional digits. Parse(a.Format()) == a for every Amount.
func (a Amount) Format() string {
	return symbol + a.Plain()
}

// Plain renders two fractional digits without the symbol; this is the wire
// form order submission uses for totalPrice.
func (a Amount) Plain() string {
	return fmt.Sprintf("%d.%02d", a/100, a%100)
}
