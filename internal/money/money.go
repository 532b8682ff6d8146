// Package money renders centavo amounts for receipts and reports.
package money

import "fmt"

// Format renders centavos with two decimals and a currency prefix,
// e.g. Format("PHP ", 50000) == "PHP 500.00".
func Format(symbol string, centavos int64) string {
	sign := ""
	if centavos < 0 {
		sign = "-"
		centavos = -centavos
	}
	return fmt.Sprintf("%s%s%d.%02d", symbol, sign, centavos/100, centavos%100)
}
