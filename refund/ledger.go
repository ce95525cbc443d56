// Package refund implements the one-shot refund ledger, activated only when
// the offering closes below its soft cap.
package refund

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/xraph/sto/types"
)

// Sentinel errors.
var (
	ErrUnauthorized     = errors.New("refund: caller is not the escrow vault")
	ErrNotBound         = errors.New("refund: ledger not bound to a vault")
	ErrAlreadyActivated = errors.New("refund: ledger already activated")
	ErrNotActivated     = errors.New("refund: ledger not activated")
	ErrNothingToRefund  = errors.New("refund: nothing to refund")
	ErrAlreadyClaimed   = errors.New("refund: refund already claimed")
	ErrReentrantCall    = errors.New("refund: reentrant call rejected")
)

// Custody is the vault surface the refund ledger needs. The ledger never
// copies investor records; it reads and flags them through these accessors.
// Defined locally so the package does not import the vault implementation —
// the vault is late-bound at wiring time.
type Custody interface {
	Investment(addr types.Address) types.Amount
	RefundClaimed(addr types.Address) bool
	SetRefundClaimed(addr types.Address, claimed bool)
	Disburse(ctx context.Context, to types.Address, amount types.Amount) error
}

// Ledger pays each investor's recorded investment back exactly once.
type Ledger struct {
	custody      Custody
	vaultAccount types.Address
	activated    bool

	inFlight atomic.Bool
}

// NewLedger creates an unbound, inactive ledger. Bind must be called during
// wiring, before the vault can activate it.
func NewLedger() *Ledger { return &Ledger{} }

// Bind attaches the vault's custody surface and account. Part of the
// two-phase wiring: ledgers are constructed before the vault exists.
func (l *Ledger) Bind(c Custody, vaultAccount types.Address) {
	l.custody = c
	l.vaultAccount = vaultAccount
}

// Activate arms the ledger. Callable only by the escrow vault, exactly once.
func (l *Ledger) Activate(_ context.Context, caller types.Address) error {
	if l.custody == nil {
		return ErrNotBound
	}
	if caller != l.vaultAccount {
		return ErrUnauthorized
	}
	if l.activated {
		return ErrAlreadyActivated
	}
	l.activated = true
	return nil
}

// Activated reports the one-way activation latch.
func (l *Ledger) Activated() bool { return l.activated }

// Restore re-arms a ledger from persisted state.
func (l *Ledger) Restore(activated bool) { l.activated = activated }

// Claim pays the investor's recorded investment back. The claim flag is set
// before the payout and rolled back if the transfer fails, so a successful
// payout can never repeat and a failed one stays retryable. The reentry
// guard makes the flag-then-pay window safe against a callback from the
// asset mover.
func (l *Ledger) Claim(ctx context.Context, investor types.Address) (types.Amount, error) {
	if !l.inFlight.CompareAndSwap(false, true) {
		return types.Amount{}, ErrReentrantCall
	}
	defer l.inFlight.Store(false)

	if !l.activated {
		return types.Amount{}, ErrNotActivated
	}

	amount := l.custody.Investment(investor)
	if amount.IsZero() {
		return types.Amount{}, ErrNothingToRefund
	}
	if l.custody.RefundClaimed(investor) {
		return types.Amount{}, ErrAlreadyClaimed
	}

	// Flag first, pay second.
	l.custody.SetRefundClaimed(investor, true)
	if err := l.custody.Disburse(ctx, investor, amount); err != nil {
		l.custody.SetRefundClaimed(investor, false)
		return types.Amount{}, fmt.Errorf("refund: claim for %s: %w", investor, err)
	}
	return amount, nil
}
