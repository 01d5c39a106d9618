// Package core holds the domain types of the welfare ledger: money,
// households, journal entries, the cash position and approval requests.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in KES cents. Arithmetic stays in cents; shillings are
// a display concern only.
type Money struct {
	Cents int64
}

// Validate rejects negative amounts. Zero is a legal posting amount (a
// household can record a zero month), so unlike a payment it passes.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return InvalidInputf("amount: must not be negative, got %d cents", m.Cents)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m − other. The result may be negative; callers clamp where
// the domain requires it.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Mul returns m × n.
func (m Money) Mul(n int64) Money {
	return Money{Cents: m.Cents * n}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Shillings returns the KES value as a float64 for display purposes only.
func (m Money) Shillings() float64 {
	return float64(m.Cents) / 100.0
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Zero is allowed; signs are not.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, InvalidInputf("amount: empty")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, InvalidInputf("amount: signed values not accepted")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, InvalidInputf("amount: malformed decimal %q", s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, InvalidInputf("amount: malformed decimal %q", s)
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, InvalidInputf("amount: malformed decimal %q", s)
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, InvalidInputf("amount: malformed decimal %q", s)
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, InvalidInputf("amount: value too large")
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// FormatKES renders cents as "KES 1,234.50" with a leading minus for
// negative balances.
func FormatKES(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(whole, 10)
	if len(s) > 3 {
		var b strings.Builder
		lead := len(s) % 3
		if lead > 0 {
			b.WriteString(s[:lead])
		}
		for i := lead; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	out := fmt.Sprintf("KES %s.%02d", s, rem)
	if neg {
		return "-" + out
	}
	return out
}
