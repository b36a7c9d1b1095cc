// Package core holds the bookkeeping domain types and the error taxonomy.
//
// Amounts are kept as integer cents. On the wire they are plain decimal
// numbers such as 12.5 or 1200.
package core

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"
)

// MaxAmountCents caps a single amount at ten billion units so that sums over
// millions of transactions stay within int64.
const MaxAmountCents int64 = 1_000_000_000_000

// ParseDecimalToCents converts a positive decimal string to cents.
//
// Both dot and comma separators are accepted and the third decimal is
// rounded half-up:
//
//	ParseDecimalToCents("12.34")  -> 1234
//	ParseDecimalToCents("12,346") -> 1235
//
// Zero, signed values, amounts above MaxAmountCents and anything that is not
// a plain decimal are rejected with ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if iv > MaxAmountCents/100 {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		frac += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		frac++
	}
	cents := iv*100 + frac
	if cents <= 0 || cents > MaxAmountCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Euros returns the amount as a float for display. Arithmetic stays in cents.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with two decimals, e.g. "-12.05".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	frac := strconv.FormatInt(c%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(c/100, 10) + "." + frac
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 1 && data[0] == '"' {
		unq, err := strconv.Unquote(string(data))
		if err != nil {
			return ErrInvalidAmount
		}
		data = []byte(unq)
	}
	if strings.ContainsAny(string(data), "eE,") {
		return ErrInvalidAmount
	}
	cents, err := ParseDecimalToCents(string(data))
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// Avg returns the rounded mean of total over n values, 0 when n is 0.
func (m Money) Avg(n int) Money {
	if n <= 0 {
		return Money{}
	}
	d := int64(n)
	if m.Cents < 0 {
		return Money{Cents: (m.Cents - d/2) / d}
	}
	return Money{Cents: (m.Cents + d/2) / d}
}
