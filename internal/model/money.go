package model

import (
	"fmt"
	"math"
	"strconv"
)

// ParseCents converts decimal string amounts (major units) to minor units.
// The storefront backend serializes all price fields as decimal strings
// (e.g. "99.00" = 9900 cents). Handles edge cases: empty strings, missing
// decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// ParseMinorUnits converts string amounts already in minor units to int64.
// Examples: "8900" → 8900, "123456" → 123456, "" → 0
func ParseMinorUnits(s string) int64 {
	if s == "" {
		return 0
	}
	// Parse as float to handle potential decimal values, then truncate
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

// FormatCents renders minor units as a decimal string for wire payloads
// and display. Examples: 9900 → "99.00", 5 → "0.05", -150 → "-1.50"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
