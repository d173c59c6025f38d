package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "R$ 1.234,56", want: "1234.56", ok: true},
		{raw: "1,234.56", want: "1234.56", ok: true},
		{raw: "45,90", want: "45.9", ok: true},
		{raw: "45,9", want: "45.9", ok: true},
		{raw: "1.234", want: "1234", ok: true},
		{raw: "1,234", want: "1234", ok: true},
		{raw: "1.5", want: "1.5", ok: true},
		{raw: "1.234.567", want: "1234567", ok: true},
		{raw: "1,234,567.891", want: "1234567.89", ok: true},
		{raw: "US$ 19.999", want: "19999", ok: true},
		{raw: "R$ 2.499,00 à vista", want: "2499", ok: true},
		{raw: "0", ok: false},
		{raw: "0,00", ok: false},
		{raw: "", ok: false},
		{raw: "grátis", ok: false},
		{raw: ",", ok: false},
	}

	for _, tc := range tests {
		got, ok := ParsePrice(tc.raw)
		if ok != tc.ok {
			t.Fatalf("ParsePrice(%q) ok=%v, want %v", tc.raw, ok, tc.ok)
		}
		if !tc.ok {
			continue
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ParsePrice(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestPositiveCentsRejectsSubCentAmounts(t *testing.T) {
	if _, ok := PositiveCents(decimal.RequireFromString("0.004")); ok {
		t.Fatalf("expected 0.004 to round to zero and be rejected")
	}
	got, ok := PositiveCents(decimal.RequireFromString("10.005"))
	if !ok || got.String() != "10.01" {
		t.Fatalf("unexpected rounding: %s ok=%v", got, ok)
	}
}
