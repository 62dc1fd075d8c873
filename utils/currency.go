package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrencyJPY formats an amount in yen with thousands separators.
// Example: 5600 -> "¥5,600", -1200.5 -> "-¥1,201"
func FormatCurrencyJPY(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	integer := int64(math.Round(amount))
	digits := fmt.Sprintf("%d", integer)

	// Group from the right in threes
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + "¥" + b.String()
}
