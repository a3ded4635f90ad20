// Package money centralizes the parsing and formatting policies for the
// monetary strings that flow through the pipeline.
//
// Upstream amount strings are untrusted: the accounting API emits decimal
// strings with unverified sign conventions, and chain APIs emit raw amounts
// as either decimal or 0x-prefixed hex. Everything tolerant lives here so
// the aggregation code itself never has to decide what to do with garbage.
// The policy is "invalid parses to zero"; swapping it for "invalid rejects"
// only touches this package.
package money

import (
	"log/slog"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a decimal string to a decimal value.
//
// Malformed or empty input yields zero rather than an error. Upstream data
// quality is not guaranteed and a partial report is more useful than none.
func Parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		slog.Warn("unparseable amount treated as zero", "value", s)
		return decimal.Zero
	}
	return d
}

// SumMap sums all values of an amount map keyed by category id.
// Each value goes through Parse, so malformed entries contribute zero.
func SumMap(m map[string]string) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(Parse(v))
	}
	return total
}

// Format renders a decimal preserving the scale its inputs carried, so
// "1000.00" minus "750.00" round-trips as "250.00" rather than "250".
// Values with no fractional scale render without a decimal point.
func Format(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}

// ParseRawUnits decodes a raw token amount expressed in the asset's smallest
// unit. Accepts decimal strings and 0x-prefixed hex strings; values up to
// and beyond 2^128 are preserved exactly. Anything else decodes to zero.
func ParseRawUnits(s string) *big.Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int)
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			slog.Warn("unparseable hex amount treated as zero", "value", s)
			return new(big.Int)
		}
		return n
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		slog.Warn("unparseable raw amount treated as zero", "value", s)
		return new(big.Int)
	}
	return n
}

// FormatUnits renders a smallest-unit amount using the asset's declared
// decimal precision, e.g. 1500000 with 6 decimals becomes "1.5".
func FormatUnits(raw *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(raw, -decimals).String()
}
