// Package asset defines the value-movement collaborators the engine consumes.
//
// The engine never owns balance storage or approval semantics. It only needs
// atomic "move value" and "query balance" primitives for the investment asset
// and an issuance primitive for the security asset. Hosts bridge these
// interfaces to whatever holds the real balances.
package asset

import (
	"context"
	"errors"

	"github.com/xraph/sto/types"
)

// ErrInsufficientBalance is the canonical failure for a move that the
// holder cannot cover. Implementations should wrap or return it so that
// callers can classify the failure as retriable.
var ErrInsufficientBalance = errors.New("asset: insufficient balance")

// Mover moves value between accounts of a single asset.
// Move must be atomic: either the full amount moves or nothing does.
type Mover interface {
	Move(ctx context.Context, from, to types.Address, amount types.Amount) error
	Balance(ctx context.Context, holder types.Address) (types.Amount, error)
}

// Issuer creates new units of the security asset for a recipient.
// Issue must be atomic-or-fail; a partial issuance is a host bug.
type Issuer interface {
	Issue(ctx context.Context, to types.Address, amount types.Amount) error
}
