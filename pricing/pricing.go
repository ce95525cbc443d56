// Package pricing defines the pricing collaborator the engine consumes and
// provides the fixed-rate reference implementation.
package pricing

import (
	"errors"
	"fmt"

	"github.com/xraph/sto/types"
)

// Sentinel errors.
var (
	ErrZeroRate    = errors.New("pricing: price per token must be positive")
	ErrWrongAsset  = errors.New("pricing: invested amount denominates the wrong asset")
	ErrNotPositive = errors.New("pricing: invested amount must be positive")
)

// Strategy converts an invested amount into a token amount plus the leftover
// remainder that could not buy a whole token unit. The remainder is owed
// back to the payer — quoting never swallows value.
type Strategy interface {
	Quote(invested types.Amount) (tokens, remainder types.Amount, err error)
	MinInvestment() types.Amount
}

// FixedRate prices every token unit at a constant investment-asset cost.
type FixedRate struct {
	price         types.Amount // investment units per security token unit
	securityAsset string
	min           types.Amount
}

var _ Strategy = (*FixedRate)(nil)

// NewFixedRate creates a fixed-rate strategy. pricePerToken denominates the
// investment asset; min may be zero to disable the minimum.
func NewFixedRate(pricePerToken types.Amount, securityAsset string, min types.Amount) (*FixedRate, error) {
	if !pricePerToken.IsPositive() {
		return nil, ErrZeroRate
	}
	return &FixedRate{
		price:         pricePerToken,
		securityAsset: securityAsset,
		min:           min,
	}, nil
}

// Quote returns invested/price whole tokens and the modulo remainder.
func (f *FixedRate) Quote(invested types.Amount) (types.Amount, types.Amount, error) {
	if invested.Asset != f.price.Asset {
		return types.Amount{}, types.Amount{}, fmt.Errorf("%w: got %q, want %q",
			ErrWrongAsset, invested.Asset, f.price.Asset)
	}
	if !invested.IsPositive() {
		return types.Amount{}, types.Amount{}, ErrNotPositive
	}

	tokens := types.NewAmount(invested.Units/f.price.Units, f.securityAsset)
	remainder := types.NewAmount(invested.Units%f.price.Units, invested.Asset)
	return tokens, remainder, nil
}

// MinInvestment returns the configured minimum purchase, zero when disabled.
func (f *FixedRate) MinInvestment() types.Amount { return f.min }
