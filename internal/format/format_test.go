package format

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyInvalidInputRendersZero(t *testing.T) {
	for _, v := range []any{nil, math.NaN(), math.Inf(-1), "abc", struct{}{}, (*decimal.Decimal)(nil)} {
		if got := Money(v, 2); got != "0.00" {
			t.Fatalf("Money(%#v) = %q, want 0.00", v, got)
		}
	}
}

func TestMoney(t *testing.T) {
	cases := map[string]any{
		"12.35":  12.345,
		"-5.00":  -5,
		"7.10":   "7.1",
		"100.00": decimal.NewFromInt(100),
		"3.00":   int32(3),
		"4.00":   uint(4),
		"9.50":   json.Number("9.5"),
	}
	for want, in := range cases {
		if got := Money(in, 2); got != want {
			t.Fatalf("Money(%v) = %q, want %q", in, got, want)
		}
	}
	if got := Money(uint64(math.MaxUint64), 0); got != "18446744073709551615" {
		t.Fatalf("uint64 overflowed: %q", got)
	}
}

func TestPercentAndSigned(t *testing.T) {
	if got := Percent(0.6667, 1); got != "66.7%" {
		t.Fatalf("unexpected percent %q", got)
	}
	if got := Percent(nil, 1); got != "0.0%" {
		t.Fatalf("nil percent should be zero, got %q", got)
	}
	if got := Signed(15, 2); got != "+15.00" {
		t.Fatalf("unexpected signed %q", got)
	}
	if got := Signed(-3, 0); got != "-3" {
		t.Fatalf("unexpected signed %q", got)
	}
}

func TestOdds(t *testing.T) {
	if Odds(150) != "+150" || Odds(-110) != "-110" {
		t.Fatalf("unexpected odds rendering: %s %s", Odds(150), Odds(-110))
	}
}

func TestNumberReportsValidity(t *testing.T) {
	if _, ok := Number(math.NaN()); ok {
		t.Fatal("NaN should be invalid")
	}
	if d, ok := Number("1.5"); !ok || !d.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("expected 1.5, got %s (%v)", d, ok)
	}
}
