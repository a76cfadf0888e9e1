package apconst

import (
	"fmt"
	"math"
)

const (
	// GuardBits are carried on top of the bits needed for the requested digits
	// so that a chain of correctly rounded operations still meets the target.
	GuardBits = 32

	// MaxDigits is the largest working precision accepted by NewPrecision.
	MaxDigits = 1_000_000
)

// Precision is the working precision shared by every value computed through one
// Provider. It is immutable once built.
type Precision struct {
	digits int
	bits   uint
}

// NewPrecision returns the precision needed for digits significant decimal digits.
func NewPrecision(digits int) (Precision, error) {
	if digits <= 0 {
		return Precision{}, configErr("set precision", "", "digits must be positive, got %d", digits)
	}
	if digits > MaxDigits {
		return Precision{}, &Error{Kind: ErrPrecision, Op: "set precision",
			Err: fmt.Errorf("%d digits exceeds the supported maximum of %d", digits, MaxDigits)}
	}
	return Precision{digits: digits, bits: DigitsToBits(digits) + GuardBits}, nil
}

// MustPrecision panics on error.
func MustPrecision(digits int) Precision {
	p, err := NewPrecision(digits)
	if err != nil {
		panic(err)
	}
	return p
}

// Digits returns the requested significant decimal digits.
func (p Precision) Digits() int { return p.digits }

// Bits returns the working precision in bits, guard bits included.
func (p Precision) Bits() uint { return p.bits }

// IsZero reports whether p was never set.
func (p Precision) IsZero() bool { return p.bits == 0 }

// DigitsToBits returns ceil(digits·log2(10)).
func DigitsToBits(digits int) uint {
	if digits <= 0 {
		return 0
	}
	return uint(math.Ceil(float64(digits) * math.Log2(10)))
}

// BitsToDigits returns the decimal digits representable in bits, less one.
func BitsToDigits(bits uint) int {
	d := int(float64(bits)*math.Log10(2)) - 1
	if d < 1 {
		d = 1
	}
	return d
}
