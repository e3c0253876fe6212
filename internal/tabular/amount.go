package tabular

import (
	"regexp"
	"strings"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/shopspring/decimal"
)

var (
	thousandsSeparators = strings.NewReplacer(
		",", "",
		"٬", "", // arabic thousands separator
		"،", "", // arabic comma
		" ", "",
		"\u00a0", "",
		"\u202f", "",
		"'", "",
	)
	nonNumeric = regexp.MustCompile(`[^0-9.\-]`)
)

// ParseAmount reads a tolerant decimal. Empty or non-numeric input is zero.
func ParseAmount(s string) decimal.Decimal {
	s = calendar.NormalizeDigits(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, "٫", ".") // arabic decimal separator
	s = thousandsSeparators.Replace(s)
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// ParseCode reads an employee code; fractions are truncated.
func ParseCode(s string) int {
	return int(ParseAmount(s).IntPart())
}

// round2 rounds for presentation.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
