package model

import "fmt"

// FormatMoney renders an amount in minor units as a human readable
// string. GBP gets the £ symbol; everything else is suffixed with its
// currency code.
func FormatMoney(minor int64, currency string) string {
	whole := minor / 100
	frac := minor % 100
	if frac < 0 {
		frac = -frac
	}
	sign := ""
	if minor < 0 {
		sign = "-"
		if whole < 0 {
			whole = -whole
		}
	}
	if currency == "GBP" || currency == "" {
		return fmt.Sprintf("%s£%d.%02d", sign, whole, frac)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, whole, frac, currency)
}
