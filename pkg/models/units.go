package models

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseUnits converts a decimal string such as "1.5" into base units
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("negative amount: %s", amount)
	}

	whole, frac, hasFrac := strings.Cut(amount, ".")
	if hasFrac && len(frac) > decimals {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	return v, nil
}

// FormatUnits renders base units as a decimal string with trailing zeros trimmed
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}

	neg := v.Sign() < 0
	digits := new(big.Int).Abs(v).String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	whole := digits[:len(digits)-decimals]
	frac := strings.TrimRight(digits[len(digits)-decimals:], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
