// Package parsing holds the locale-aware helpers shared by the aggregation routines:
// Brazilian currency strings, dd/mm/yyyy dates, venue splitting and question date windows.
package parsing

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// ParseCurrency converts "R$ 1.234,56" into 1234.56.
// The second return is false for empty, "-" or otherwise unparsable input.
func ParseCurrency(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatCurrency renders v with dot grouping and a decimal comma: 1234.56 → "1.234,56".
func FormatCurrency(v float64) string {
	return brPrinter.Sprintf("%.2f", v)
}

// FormatBRL is FormatCurrency with the "R$ " prefix.
func FormatBRL(v float64) string {
	return "R$ " + FormatCurrency(v)
}
