package common

import (
	"math"
	"strconv"
	"strings"
)

// FormatThousands renders v with comma thousands separators and the given
// number of decimals. Non-finite values render as "0".
func FormatThousands(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if decimals < 0 {
		decimals = 0
	}

	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 && strings.Trim(s, "0.") != "" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatMoney renders a whole-dollar amount, e.g. "$1,250,000".
func FormatMoney(v float64) string {
	s := FormatThousands(v, 0)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// FormatMoneyCents renders a dollar amount with cents, e.g. "$12.50".
func FormatMoneyCents(v float64) string {
	s := FormatThousands(v, 2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// RoundTo rounds v to the given number of decimals. Halves round towards
// positive infinity, so -0.125 becomes -0.12.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Floor(v*p+0.5) / p
}
