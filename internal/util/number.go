package util

import (
	"math"
	"strconv"
	"strings"
)

var numericBlanks = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// ParseNumber reads a rate cell. Both "12.5" and "12,5" are accepted; when a
// value carries both separators the last one is the decimal point, so
// "1,234.5" and "1.234,5" both read as 1234.5.
func ParseNumber(input string) (float64, bool) {
	token := numericBlanks.Replace(strings.TrimSpace(input))
	if token == "" {
		return 0, false
	}
	if strings.Contains(token, ",") {
		if strings.Contains(token, ".") {
			if strings.LastIndex(token, ",") > strings.LastIndex(token, ".") {
				token = strings.ReplaceAll(token, ".", "")
				token = strings.Replace(token, ",", ".", 1)
			} else {
				token = strings.ReplaceAll(token, ",", "")
			}
		} else if strings.Count(token, ",") == 1 {
			token = strings.Replace(token, ",", ".", 1)
		} else {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseNumberPtr is ParseNumber returning nil for a null or unreadable cell.
func ParseNumberPtr(input string) *float64 {
	v, ok := ParseNumber(input)
	if !ok {
		return nil
	}
	return &v
}

// FormatNumber writes a float the way the CSV outputs expect: shortest
// round-trip decimal, NaN as a null cell, infinities as inf / -inf.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func FormatNumberPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatNumber(*v)
}
