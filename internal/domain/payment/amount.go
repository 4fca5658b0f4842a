package payment

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount marks a major-unit amount with no exact int64 minor-unit form.
var ErrInvalidAmount = errors.New("payment: invalid amount")

var (
	minMinor = decimal.NewFromInt(math.MinInt64)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// Currencies charged in whole units by card processors.
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

func IsZeroDecimal(currency string) bool {
	return zeroDecimal[strings.ToUpper(currency)]
}

// ToMinorUnits converts a major-unit amount (499.50 INR) to the smallest unit (49950).
// Fractions of a minor unit and values beyond int64 fail with ErrInvalidAmount.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	minor := amount
	if !IsZeroDecimal(currency) {
		minor = amount.Shift(2)
	}
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s %s has more precision than the smallest unit",
			ErrInvalidAmount, amount, strings.ToUpper(currency))
	}
	if minor.LessThan(minMinor) || minor.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %s %s is too large", ErrInvalidAmount, amount, strings.ToUpper(currency))
	}
	return minor.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64, currency string) decimal.Decimal {
	if IsZeroDecimal(currency) {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}
