package provider

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePercent converts a percent-like cell ("1.25%", " -0.3 % ", 2.5) to a float.
// Missing, placeholder and unparsable values yield 0.
func ParsePercent(v any) float64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		return parseDecimal(s)
	}
	return parseScalar(v)
}

// ParseNumber converts a numeric cell ("1,234.5", 0.987) to a float.
// Missing, placeholder and unparsable values yield 0.
func ParseNumber(v any) float64 {
	if s, ok := v.(string); ok {
		return parseDecimal(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	}
	return parseScalar(v)
}

func parseScalar(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		return parseDecimal(t.String())
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return 0
	}
}

func parseDecimal(s string) float64 {
	switch s {
	case "", "-", "--":
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// text renders an identifier or label cell as a trimmed string.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
