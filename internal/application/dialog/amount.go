package dialog

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountShape = regexp.MustCompile(`^-?\d*\.?\d*$`)

// ParseAmount normalizes a user-entered money amount: " $1,234.50 " ->
// "1234.50", "120" -> "120", "120,50" -> "120.50". Currency symbols and
// spaces are stripped. A comma is a decimal separator unless a period is
// also present, in which case it is a thousands separator. Amounts that
// carried a decimal separator are formatted to two places; plain integers
// stay integers.
func ParseAmount(s string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		}
		return -1
	}, strings.TrimSpace(s))

	if strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	if !amountShape.MatchString(cleaned) {
		return "", false
	}
	if !strings.ContainsAny(cleaned, "0123456789") {
		return "", false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return "", false
	}
	if strings.Contains(cleaned, ".") {
		return strconv.FormatFloat(n, 'f', 2, 64), true
	}
	return strconv.FormatFloat(n, 'f', -1, 64), true
}
