// Package money provides atomic-unit arithmetic for on-chain token amounts.
// All values are represented as an int64 in the asset's smallest unit
// (lamports, wei, micro-USDC, ...) to avoid floating-point rounding when
// comparing amounts against policy limits or bridge tolerances.
package money

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Money is an amount of a token expressed in atomic units.
type Money struct {
	Decimals uint8
	Atomic   int64
}

var (
	// ErrOverflow occurs when an operation would exceed int64 capacity.
	ErrOverflow = errors.New("money: arithmetic overflow")

	// ErrInvalidFormat occurs when parsing a major-unit string fails.
	ErrInvalidFormat = errors.New("money: invalid format")

	// ErrDivisionByZero occurs when dividing by zero.
	ErrDivisionByZero = errors.New("money: division by zero")
)

// Zero returns a zero amount with the given decimals.
func Zero(decimals uint8) Money {
	return Money{Decimals: decimals}
}

// New wraps an atomic amount with its decimals.
func New(decimals uint8, atomic int64) Money {
	return Money{Decimals: decimals, Atomic: atomic}
}

// ParseUnits converts a human-entered major-unit amount (e.g. "100.50") into
// atomic units for the given decimals, using half-up rounding on any digits
// beyond the asset's precision. This is the `parse_units(amount, decimals)`
// referenced by the direct-payment amount match.
func ParseUnits(major string, decimals uint8) (Money, error) {
	parts := strings.Split(strings.TrimSpace(major), ".")
	if len(parts) > 2 {
		return Money{}, fmt.Errorf("%w: too many decimal points", ErrInvalidFormat)
	}

	integerPart := parts[0]
	fractionalPart := ""
	if len(parts) == 2 {
		fractionalPart = parts[1]
	}

	integerVal, err := strconv.ParseInt(integerPart, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	var atomicFromFraction int64
	if fractionalPart != "" {
		if len(fractionalPart) > int(decimals) {
			roundDigit := fractionalPart[decimals] - '0'
			fractionalPart = fractionalPart[:decimals]
			parsed, _ := strconv.ParseInt(fractionalPart, 10, 64)
			atomicFromFraction = parsed
			if roundDigit >= 5 {
				atomicFromFraction++
			}
		} else {
			for len(fractionalPart) < int(decimals) {
				fractionalPart += "0"
			}
			atomicFromFraction, _ = strconv.ParseInt(fractionalPart, 10, 64)
		}
	}

	multiplier := int64(math.Pow10(int(decimals)))
	if integerVal != 0 && multiplier > math.MaxInt64/absInt64(integerVal) {
		return Money{}, ErrOverflow
	}

	atomicFromInteger := integerVal * multiplier
	if integerVal < 0 {
		atomicFromFraction = -atomicFromFraction
	}

	return Money{Decimals: decimals, Atomic: atomicFromInteger + atomicFromFraction}, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Format renders the amount as a major-unit decimal string.
func (m Money) Format() string {
	if m.Atomic == 0 {
		if m.Decimals == 0 {
			return "0"
		}
		return "0." + strings.Repeat("0", int(m.Decimals))
	}

	divisor := int64(math.Pow10(int(m.Decimals)))
	integerPart := m.Atomic / divisor
	fractionalPart := m.Atomic % divisor
	if fractionalPart < 0 {
		fractionalPart = -fractionalPart
	}
	if m.Decimals == 0 {
		return strconv.FormatInt(integerPart, 10)
	}

	var buf strings.Builder
	buf.WriteString(strconv.FormatInt(integerPart, 10))
	buf.WriteByte('.')
	fractionalStr := strconv.FormatInt(fractionalPart, 10)
	for i := 0; i < int(m.Decimals)-len(fractionalStr); i++ {
		buf.WriteByte('0')
	}
	buf.WriteString(fractionalStr)
	return buf.String()
}

func (m Money) String() string { return m.Format() }

// Add returns the sum of two same-decimals amounts.
func (m Money) Add(other Money) (Money, error) {
	if m.Decimals != other.Decimals {
		return Money{}, fmt.Errorf("money: decimals mismatch (%d vs %d)", m.Decimals, other.Decimals)
	}
	result := m.Atomic + other.Atomic
	if (result > m.Atomic) != (other.Atomic > 0) {
		return Money{}, ErrOverflow
	}
	return Money{Decimals: m.Decimals, Atomic: result}, nil
}

// MulFraction multiplies the amount by numerator/denominator using exact
// integer arithmetic (half-up rounded), avoiding the float drift that would
// creep into repeated percentage math on bridge fee calculations.
func (m Money) MulFraction(numerator, denominator int64) (Money, error) {
	if denominator == 0 {
		return Money{}, ErrDivisionByZero
	}
	result := new(big.Int).Mul(big.NewInt(m.Atomic), big.NewInt(numerator))
	half := big.NewInt(denominator / 2)
	if result.Sign() >= 0 {
		result.Add(result, half)
	} else {
		result.Sub(result, half)
	}
	result.Div(result, big.NewInt(denominator))
	if !result.IsInt64() {
		return Money{}, ErrOverflow
	}
	return Money{Decimals: m.Decimals, Atomic: result.Int64()}, nil
}

// ToleranceWindow returns [lower, upper] bounds for matching a transfer
// against this expected amount, expressed as percentages (e.g. 99, 110
// for "99%..110%").
func (m Money) ToleranceWindow(lowerPct, upperPct int64) (lower, upper Money, err error) {
	lower, err = m.MulFraction(lowerPct, 100)
	if err != nil {
		return Money{}, Money{}, err
	}
	upper, err = m.MulFraction(upperPct, 100)
	if err != nil {
		return Money{}, Money{}, err
	}
	return lower, upper, nil
}

// Within reports whether t falls within [lower, upper] inclusive.
func (m Money) Within(lower, upper Money) bool {
	return m.Decimals == lower.Decimals && m.Decimals == upper.Decimals &&
		m.Atomic >= lower.Atomic && m.Atomic <= upper.Atomic
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Atomic == 0 }

// GreaterThan reports whether m > other (same decimals required).
func (m Money) GreaterThan(other Money) bool {
	return m.Decimals == other.Decimals && m.Atomic > other.Atomic
}
