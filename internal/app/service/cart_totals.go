package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is applied when no valid rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// MaxLineQuantity caps a single line so quantity arithmetic cannot overflow.
const MaxLineQuantity = math.MaxInt32

// ComputeTotals sums lines with exact decimal arithmetic, so the result does
// not depend on line order. Tax is rounded to cents.
func ComputeTotals(lines []model.CartLine, taxRate decimal.Decimal) model.CartTotals {
	subtotal := decimal.Zero
	count := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
		count += line.Quantity
	}
	tax := subtotal.Mul(taxRate).Round(2)
	return model.CartTotals{
		Subtotal:   subtotal,
		Tax:        tax,
		GrandTotal: subtotal.Add(tax),
		ItemCount:  count,
	}
}

// ParseTaxRate parses a decimal rate like "0.10"; invalid or negative input
// falls back to DefaultTaxRate.
func ParseTaxRate(s string) decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || rate.IsNegative() {
		logger.Warn("Invalid cart tax rate, using default", map[string]interface{}{
			"value":   s,
			"default": DefaultTaxRate.String(),
		})
		return DefaultTaxRate
	}
	return rate
}

// ParseProductID accepts a positive whole number as a Go integer, a JSON
// number or a numeric string. Fractions, zero, negatives and values above
// math.MaxInt32 are rejected.
func ParseProductID(raw interface{}) (int, bool) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 {
			return 0, false
		}
		n = int64(v)
	case json.Number:
		parsed, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// NormalizeQuantity converts a loosely typed quantity (JSON number, numeric
// string, Go integer) to an int. Fractions truncate toward zero and values are
// capped at ±MaxLineQuantity. ok is false when raw is not numeric.
func NormalizeQuantity(raw interface{}) (qty int, ok bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		return clampQuantity(float64(v)), true
	case int32:
		return clampQuantity(float64(v)), true
	case int64:
		return clampQuantity(float64(v)), true
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return clampQuantity(math.Trunc(f)), true
}

func clampQuantity(f float64) int {
	if f > MaxLineQuantity {
		return MaxLineQuantity
	}
	if f < -MaxLineQuantity {
		return -MaxLineQuantity
	}
	return int(f)
}

func addQuantity(a, b int) int {
	if a > MaxLineQuantity-b {
		return MaxLineQuantity
	}
	return a + b
}
