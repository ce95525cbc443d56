// Package fees defines the optional fee collaborator: a schedule splits a
// gross payment into a fee routed to the fee wallet and the net amount that
// proceeds through pricing and escrow.
package fees

import (
	"errors"

	"github.com/xraph/sto/types"
)

// ErrInvalidRate is returned for a basis-point rate outside [0, 10000].
var ErrInvalidRate = errors.New("fees: basis points must be between 0 and 10000")

// ErrMissingWallet is returned when a nonzero schedule lacks a fee wallet.
var ErrMissingWallet = errors.New("fees: fee wallet address is required")

// Schedule splits a gross amount into fee and net portions.
// Invariant: fee + net == gross, fee >= 0, net >= 0.
type Schedule interface {
	Split(gross types.Amount) (fee, net types.Amount)
	Wallet() types.Address
}

// FlatRate charges a constant fraction of every purchase, in basis points.
type FlatRate struct {
	bps    int64
	wallet types.Address
}

var _ Schedule = (*FlatRate)(nil)

// NewFlatRate creates a flat schedule. 100 bps = 1%.
func NewFlatRate(bps int64, wallet types.Address) (*FlatRate, error) {
	if bps < 0 || bps > 10_000 {
		return nil, ErrInvalidRate
	}
	if bps > 0 && wallet.IsZero() {
		return nil, ErrMissingWallet
	}
	return &FlatRate{bps: bps, wallet: wallet}, nil
}

// Split computes fee = gross * bps / 10000, rounding the fee down so the
// investor keeps the rounding dust.
func (f *FlatRate) Split(gross types.Amount) (types.Amount, types.Amount) {
	fee := types.NewAmount(gross.Units*f.bps/10_000, gross.Asset)
	return fee, gross.Sub(fee)
}

// Wallet returns the fee destination.
func (f *FlatRate) Wallet() types.Address { return f.wallet }
