// Package currency provides the amount type used for transaction values and
// fees. Amounts carry a total order so they can live inside the mempool's
// priority heap; non-finite values are rejected at construction.
package currency

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrNotFinite is returned when an amount is NaN or infinite.
var ErrNotFinite = errors.New("amount must be a finite number")

// ErrNegative is returned when an amount is below zero.
var ErrNegative = errors.New("amount must not be negative")

// Amount represents a monetary value on the chain. The zero value is a valid
// amount of zero.
type Amount float64

// New validates the specified value can be used as an amount.
func New(value float64) (Amount, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrNotFinite
	}

	if value < 0 {
		return 0, ErrNegative
	}

	return Amount(value), nil
}

// Float64 returns the underlying value.
func (a Amount) Float64() float64 {
	return float64(a)
}

// Add returns the sum of the two amounts.
func (a Amount) Add(b Amount) Amount {
	return a + b
}

// Less reports whether a orders before b. The order is total because
// construction rejects NaN.
func (a Amount) Less(b Amount) bool {
	return a < b
}

// String renders the amount the way it is embedded in canonical transaction
// strings. The shortest representation that round-trips is used so every
// node produces identical digest input.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// UnmarshalJSON implements the json.Unmarshaler interface and applies the
// same validation as New.
func (a *Amount) UnmarshalJSON(data []byte) error {
	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}

	amount, err := New(value)
	if err != nil {
		return err
	}

	*a = amount
	return nil
}
