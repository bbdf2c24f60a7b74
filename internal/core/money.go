// Package core provides the settlement classifier, aggregator and filters.
//
// This file contains the fixed-point money type. The backend sends amounts as
// decimal rupees; they are converted to integer paise on decode so that sums
// over many small payments never drift.
package core

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in paise.
type Money struct {
	Paise int64
}

// Rupees builds a Money from a whole-rupee amount.
func Rupees(r int64) Money {
	return Money{Paise: r * 100}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Paise: m.Paise + o.Paise}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Paise: m.Paise - o.Paise}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Paise == 0
}

// Decimal returns the amount in rupees as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Paise, -2)
}

// String formats the amount with two decimals and the rupee sign, e.g. "₹1234.50".
func (m Money) String() string {
	s := m.Decimal().Abs().StringFixed(2)
	if m.Paise < 0 {
		return "-₹" + s
	}
	return "₹" + s
}

func fromDecimal(d decimal.Decimal) Money {
	return Money{Paise: d.Shift(2).Round(0).IntPart()}
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Paise = 0
		return nil
	}
	raw := string(data)
	if raw[0] == '"' {
		unq, err := strconv.Unquote(raw)
		if err != nil {
			return ErrInvalidAmount
		}
		if strings.TrimSpace(unq) == "" {
			m.Paise = 0
			return nil
		}
		raw = unq
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidAmount
	}
	*m = fromDecimal(d)
	return nil
}

// MarshalJSON writes the amount as a decimal rupee number with two places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}
