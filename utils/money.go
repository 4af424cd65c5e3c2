package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currency markers stripped by ParseMoney
var moneyMarkers = []string{"IDR", "idr", "Rp.", "rp.", "Rp", "rp"}

// ParseMoney accepts user-formatted amounts such as "100,000", "Rp 100,000" or "IDR -20,000".
// Keeps digits, '.', and a leading '-' only.
func ParseMoney(i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case string:
		s := strings.TrimSpace(v)
		s = strings.ReplaceAll(s, ",", "")
		for _, m := range moneyMarkers {
			s = strings.ReplaceAll(s, m, "")
		}
		s = strings.TrimSpace(s)
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		}
		var b strings.Builder
		b.Grow(len(s) + 1)
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		clean := b.String()
		if clean == "" {
			return decimal.Zero, fmt.Errorf("invalid value")
		}
		if neg {
			clean = "-" + clean
		}
		return decimal.NewFromString(clean)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("invalid value")
	}
}

// ParseOptionalMoney returns nil for an empty string.
func ParseOptionalMoney(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseMoney(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
