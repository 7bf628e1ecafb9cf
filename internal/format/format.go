// Package format renders numbers for the dashboard. Invalid input (NaN,
// infinities, unparsable strings) always renders as the zero value.
package format

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number converts a numeric input to a decimal. Accepted are decimals (value or
// pointer), all built-in integer and float types, json.Number and numeric
// strings. ok is false for anything else or for non-finite values; the
// returned value is then zero.
func Number(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return Number(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return fromUint(uint64(n)), true
	case uint8:
		return fromUint(uint64(n)), true
	case uint16:
		return fromUint(uint64(n)), true
	case uint32:
		return fromUint(uint64(n)), true
	case uint64:
		return fromUint(n), true
	case json.Number:
		return Number(string(n))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

func fromUint(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

// Money renders v with a fixed number of decimal places.
func Money(v any, places int32) string {
	d, _ := Number(v)
	return d.StringFixed(places)
}

// Percent renders a ratio (0.25) as a percentage string ("25.0%").
func Percent(ratio any, places int32) string {
	d, _ := Number(ratio)
	return d.Mul(decimal.NewFromInt(100)).StringFixed(places) + "%"
}

// Signed renders v with an explicit sign for positive values.
func Signed(v any, places int32) string {
	d, _ := Number(v)
	s := d.StringFixed(places)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// Odds renders American odds with a leading sign; zero is not a valid price
// and renders as "0".
func Odds(price int) string {
	if price > 0 {
		return "+" + strconv.Itoa(price)
	}
	return strconv.Itoa(price)
}
