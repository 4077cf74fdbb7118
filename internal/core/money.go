// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from form input
// and for moving amounts between the backend's decimal JSON numbers and
// integer cents.
package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in minor units (cents). The backend speaks decimal
// major units, so all arithmetic happens on cents and conversion is done
// only at the JSON boundary.
type Money struct {
	Cents int64
}

// FromMajor converts a decimal major-unit amount to Money, rounding half away
// from zero to the nearest cent.
func FromMajor(v float64) Money {
	return Money{Cents: int64(math.Round(v * 100))}
}

// Major returns the amount in major units for display and JSON encoding.
// Use Cents for calculations.
func (m Money) Major() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsPositive() bool  { return m.Cents > 0 }

// Validate accepts strictly positive amounts only.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Format renders the amount with two decimals and the given currency symbol,
// e.g. "$12.34" or "-$0.50".
func (m Money) Format(symbol string) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := symbol + strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// String formats without a currency symbol.
func (m Money) String() string {
	return m.Format("")
}

// MarshalJSON encodes the amount as a decimal number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Major(), 'f', 2, 64)), nil
}

// UnmarshalJSON accepts a JSON number, a quoted decimal string or null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Cents = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("money: %w", err)
		}
		s = strings.TrimSpace(unq)
		if s == "" {
			m.Cents = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	*m = FromMajor(v)
	return nil
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns ErrNegativeAmount for a leading minus sign and ErrInvalidAmount for
// other invalid formats or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
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
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseMoney is ParseDecimalToCents returning Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// ParseMoneyAllowZero is ParseMoney that also accepts zero and an empty string
// (treated as zero). Used for optional thresholds and costs.
func ParseMoneyAllowZero(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	m, err := ParseMoney(s)
	if err == ErrInvalidAmount {
		if v, perr := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); perr == nil && v == 0 {
			return Money{}, nil
		}
	}
	return m, err
}
