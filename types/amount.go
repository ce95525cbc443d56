// Package types provides common value types used across the offering engine.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Amount represents a quantity of an asset in its smallest indivisible unit.
// All arithmetic is integer-only — no floating point.
//
// The Asset code tags which asset the amount denominates (the investment
// asset or the security token). Mixing assets in arithmetic is a programming
// error and panics, the same way mixing currencies would corrupt a ledger.
type Amount struct {
	Units int64  `json:"units"` // Smallest indivisible unit
	Asset string `json:"asset"` // Lowercase asset code, e.g. "usdc", "acme-st"
}

// NewAmount creates an Amount of the given asset.
func NewAmount(units int64, asset string) Amount {
	return Amount{Units: units, Asset: strings.ToLower(asset)}
}

// Zero returns a zero Amount of the given asset.
func Zero(asset string) Amount { return Amount{Units: 0, Asset: strings.ToLower(asset)} }

// Arithmetic operations

// Add adds two Amounts. Panics if assets don't match or the sum overflows.
func (a Amount) Add(other Amount) Amount {
	a.assertSameAsset(other)
	sum := a.Units + other.Units
	if (other.Units > 0 && sum < a.Units) || (other.Units < 0 && sum > a.Units) {
		panic(fmt.Sprintf("amount: overflow adding %d and %d %s", a.Units, other.Units, a.Asset))
	}
	return Amount{Units: sum, Asset: a.Asset}
}

// Sub subtracts another Amount. Panics if assets don't match.
func (a Amount) Sub(other Amount) Amount {
	a.assertSameAsset(other)
	return Amount{Units: a.Units - other.Units, Asset: a.Asset}
}

// Min returns the smaller of two Amounts. Panics if assets don't match.
func (a Amount) Min(other Amount) Amount {
	a.assertSameAsset(other)
	if a.Units < other.Units {
		return a
	}
	return other
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.Units == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.Units > 0 }

// Equal returns true if both Amounts are equal (same units and asset).
func (a Amount) Equal(other Amount) bool {
	return a.Units == other.Units && a.Asset == other.Asset
}

// LessThan returns true if this Amount is less than other. Panics if assets don't match.
func (a Amount) LessThan(other Amount) bool {
	a.assertSameAsset(other)
	return a.Units < other.Units
}

// GreaterThan returns true if this Amount is greater than other. Panics if assets don't match.
func (a Amount) GreaterThan(other Amount) bool {
	a.assertSameAsset(other)
	return a.Units > other.Units
}

// SameAsset returns true if both Amounts denominate the same asset.
func (a Amount) SameAsset(other Amount) bool { return a.Asset == other.Asset }

// String returns a human-readable representation, e.g. "2000000 usdc".
func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Units, a.Asset)
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Units   int64  `json:"units"`
		Asset   string `json:"asset"`
		Display string `json:"display"`
	}{
		Units:   a.Units,
		Asset:   a.Asset,
		Display: a.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw struct {
		Units int64  `json:"units"`
		Asset string `json:"asset"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Units = raw.Units
	a.Asset = strings.ToLower(raw.Asset)
	return nil
}

// Sum adds a slice of Amounts, which must all denominate the same asset.
// Returns a zero Amount of the given asset for an empty slice.
func Sum(asset string, amounts ...Amount) Amount {
	total := Zero(asset)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// assertSameAsset panics if assets don't match.
func (a Amount) assertSameAsset(other Amount) {
	if a.Asset != other.Asset {
		panic(fmt.Sprintf("amount: asset mismatch: %s != %s", a.Asset, other.Asset))
	}
}
