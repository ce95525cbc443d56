// Package delivery implements the one-shot token delivery ledger, activated
// only when the offering closes at or above its soft cap.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/types"
)

// Sentinel errors.
var (
	ErrUnauthorized     = errors.New("delivery: caller is not the escrow vault")
	ErrNotBound         = errors.New("delivery: ledger not bound to a vault")
	ErrAlreadyActivated = errors.New("delivery: ledger already activated")
	ErrNotActivated     = errors.New("delivery: ledger not activated")
	ErrNothingAllocated = errors.New("delivery: no token allocation")
	ErrAlreadyClaimed   = errors.New("delivery: tokens already delivered")
	ErrIssuanceFailed   = errors.New("delivery: token issuance failed")
	ErrReentrantCall    = errors.New("delivery: reentrant call rejected")
)

// Allocations is the vault surface the delivery ledger needs, defined
// locally so the vault can be late-bound at wiring time.
type Allocations interface {
	Allocation(addr types.Address) types.Amount
	TokensClaimed(addr types.Address) bool
	SetTokensClaimed(addr types.Address, claimed bool)
}

// Ledger issues each investor's token allocation exactly once.
type Ledger struct {
	allocations  Allocations
	issuer       asset.Issuer
	vaultAccount types.Address
	activated    bool
	logger       *slog.Logger

	inFlight atomic.Bool
}

// NewLedger creates an unbound, inactive ledger. Bind must be called during
// wiring, before the vault can activate it.
func NewLedger(issuer asset.Issuer, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{issuer: issuer, logger: logger}
}

// Bind attaches the vault's allocation surface and account.
func (l *Ledger) Bind(a Allocations, vaultAccount types.Address) {
	l.allocations = a
	l.vaultAccount = vaultAccount
}

// Activate arms the ledger. Callable only by the escrow vault, exactly once.
func (l *Ledger) Activate(_ context.Context, caller types.Address) error {
	if l.allocations == nil {
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

// Deliver issues the investor's full allocation. The claim flag is set
// before the issuance call to close the reentrancy window; if issuance
// fails the flag is rolled back so the delivery stays retryable.
func (l *Ledger) Deliver(ctx context.Context, investor types.Address) (types.Amount, error) {
	if !l.inFlight.CompareAndSwap(false, true) {
		return types.Amount{}, ErrReentrantCall
	}
	defer l.inFlight.Store(false)

	return l.deliverLocked(ctx, investor)
}

func (l *Ledger) deliverLocked(ctx context.Context, investor types.Address) (types.Amount, error) {
	if !l.activated {
		return types.Amount{}, ErrNotActivated
	}
	if l.allocations.TokensClaimed(investor) {
		return types.Amount{}, ErrAlreadyClaimed
	}
	amount := l.allocations.Allocation(investor)
	if amount.IsZero() {
		return types.Amount{}, ErrNothingAllocated
	}

	l.allocations.SetTokensClaimed(investor, true)
	if err := l.issuer.Issue(ctx, investor, amount); err != nil {
		l.allocations.SetTokensClaimed(investor, false)
		return types.Amount{}, fmt.Errorf("%w: %s: %v", ErrIssuanceFailed, investor, err)
	}
	return amount, nil
}

// BatchResult summarizes a batch delivery pass.
type BatchResult struct {
	// Delivered lists addresses whose allocation was issued in this pass.
	Delivered []types.Address
	// Skipped counts addresses with nothing allocated or already claimed.
	Skipped int
	// Failed maps addresses to their issuance errors. Failures do not
	// abort the batch; they stay retryable individually.
	Failed map[types.Address]error
}

// BatchDeliver applies Deliver semantics per address with skip-and-continue
// policy: zero-allocation and already-claimed addresses are skipped
// silently, and a genuine issuance failure for one address never blocks
// delivery to the others.
func (l *Ledger) BatchDeliver(ctx context.Context, investors []types.Address) (*BatchResult, error) {
	if !l.inFlight.CompareAndSwap(false, true) {
		return nil, ErrReentrantCall
	}
	defer l.inFlight.Store(false)

	if !l.activated {
		return nil, ErrNotActivated
	}

	res := &BatchResult{Failed: make(map[types.Address]error)}
	for _, investor := range investors {
		_, err := l.deliverLocked(ctx, investor)
		switch {
		case err == nil:
			res.Delivered = append(res.Delivered, investor)
		case errors.Is(err, ErrAlreadyClaimed), errors.Is(err, ErrNothingAllocated):
			res.Skipped++
		default:
			res.Failed[investor] = err
			l.logger.Warn("batch delivery failure",
				"investor", investor.String(),
				"error", err,
			)
		}
	}
	return res, nil
}
