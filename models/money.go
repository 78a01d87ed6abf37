// ABOUTME: Decimal money helpers shared by the board, web and dashboard views
// ABOUTME: Formats totals with thousands separators and a currency sign
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with thousands separators. Whole amounts
// drop the cents.
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsInteger() {
		s = d.StringFixed(0)
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + "$" + b.String()
}
