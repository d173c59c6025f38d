package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice converts locale-formatted price text ("R$ 1.234,56", "1,234.56",
// "45,90") into a positive amount rounded to cents. When both separators are
// present the rightmost one is the decimal mark. A lone separator is decimal
// only if it occurs once and is followed by one or two digits.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = resolveSingleSeparator(cleaned, ",")
	case lastDot >= 0:
		cleaned = resolveSingleSeparator(cleaned, ".")
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return PositiveCents(value)
}

func resolveSingleSeparator(value, sep string) string {
	parts := strings.Split(value, sep)
	if len(parts) == 2 && len(parts[1]) >= 1 && len(parts[1]) <= 2 {
		return parts[0] + "." + parts[1]
	}
	return strings.ReplaceAll(value, sep, "")
}

// PositiveCents rounds to two fractional digits and rejects non-positive results.
func PositiveCents(value decimal.Decimal) (decimal.Decimal, bool) {
	rounded := value.Round(2)
	if !rounded.IsPositive() {
		return decimal.Zero, false
	}
	return rounded, true
}
