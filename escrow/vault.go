package escrow

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/types"
)

// Ledger is a settlement ledger the vault can activate. Exactly one of the
// two wired ledgers is activated at finalize time; activation is a one-way
// call from the vault into the ledger, never the reverse.
type Ledger interface {
	Activate(ctx context.Context, caller types.Address) error
}

// Config wires a vault instance. All fields are required except the two
// ledgers, which may be bound before first use via the constructor only.
type Config struct {
	// Account is the vault's custody account for the investment asset.
	Account types.Address
	// Controller is the only address allowed to deposit.
	Controller types.Address
	// Receiver gets the raised funds on successful finalization.
	Receiver types.Address
	// InvestmentAsset and SecurityAsset are the two asset codes.
	InvestmentAsset string
	SecurityAsset   string
	// Mover moves the investment asset.
	Mover asset.Mover
	// Refunds and Minting are the two mutually exclusive outcome ledgers.
	Refunds Ledger
	Minting Ledger
}

// Vault custodies deposited funds for one offering and drives the
// Open → Closed → Finalized state machine.
//
// The vault assumes the host serializes operations (the engine holds one
// mutex across every public operation). Its own guard exists solely to turn
// a reentrant callback from the asset mover into an error instead of a
// double effect.
type Vault struct {
	cfg Config

	records map[types.Address]*InvestorRecord
	order   []types.Address

	totalInvested  types.Amount
	totalAllocated types.Amount

	closed             bool
	finalized          bool
	softCapAtFinalize  bool
	refundsInitialized bool
	mintingInitialized bool
	fundsReleased      bool

	inFlight atomic.Bool
}

// NewVault creates an empty vault.
func NewVault(cfg Config) *Vault {
	return &Vault{
		cfg:            cfg,
		records:        make(map[types.Address]*InvestorRecord),
		totalInvested:  types.Zero(cfg.InvestmentAsset),
		totalAllocated: types.Zero(cfg.SecurityAsset),
	}
}

// State is the restorable portion of a vault.
type State struct {
	Records            []*InvestorRecord // ordered by Position
	Closed             bool
	Finalized          bool
	SoftCapAtFinalize  bool
	RefundsInitialized bool
	MintingInitialized bool
	FundsReleased      bool
}

// Restore loads persisted state into a freshly constructed vault.
func (v *Vault) Restore(st State) {
	for _, rec := range st.Records {
		r := rec.Clone()
		v.records[r.Address] = r
		v.order = append(v.order, r.Address)
		v.totalInvested = v.totalInvested.Add(r.Invested)
		v.totalAllocated = v.totalAllocated.Add(r.Allocation)
	}
	v.closed = st.Closed
	v.finalized = st.Finalized
	v.softCapAtFinalize = st.SoftCapAtFinalize
	v.refundsInitialized = st.RefundsInitialized
	v.mintingInitialized = st.MintingInitialized
	v.fundsReleased = st.FundsReleased
}

// enter sets the reentry guard, rejecting a nested call into the same vault
// while an asset move is in flight.
func (v *Vault) enter() error {
	if !v.inFlight.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (v *Vault) leave() { v.inFlight.Store(false) }

// Deposit moves netAmount into vault custody and credits the investor's
// record. Callable only by the offering controller while the offering is
// open. The asset move happens before any bookkeeping mutation: if the move
// fails nothing is credited, so phantom funds cannot exist.
func (v *Vault) Deposit(ctx context.Context, caller, investor types.Address, netAmount, allocation types.Amount) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.leave()

	if caller != v.cfg.Controller {
		return ErrUnauthorized
	}
	if v.finalized {
		return ErrAlreadyFinalized
	}
	if v.closed {
		return ErrOfferingClosed
	}
	if !netAmount.IsPositive() || !allocation.IsPositive() ||
		netAmount.Asset != v.cfg.InvestmentAsset || allocation.Asset != v.cfg.SecurityAsset {
		return ErrInvalidDeposit
	}

	// Move first, credit second.
	if err := v.cfg.Mover.Move(ctx, caller, v.cfg.Account, netAmount); err != nil {
		return fmt.Errorf("%w: deposit %v for %s: %v", ErrTransferFailed, netAmount, investor, err)
	}

	rec, ok := v.records[investor]
	if !ok {
		rec = &InvestorRecord{
			Entity:     types.NewEntity(),
			Address:    investor,
			Invested:   types.Zero(v.cfg.InvestmentAsset),
			Allocation: types.Zero(v.cfg.SecurityAsset),
			Position:   len(v.order),
		}
		v.records[investor] = rec
		v.order = append(v.order, investor)
	}
	rec.Invested = rec.Invested.Add(netAmount)
	rec.Allocation = rec.Allocation.Add(allocation)
	rec.Touch()

	v.totalInvested = v.totalInvested.Add(netAmount)
	v.totalAllocated = v.totalAllocated.Add(allocation)
	return nil
}

// Close transitions the vault out of the open phase. At least one trigger
// must hold. One-way: there is no reopen.
func (v *Vault) Close(hardCapReached, endTimeReached bool) error {
	if !hardCapReached && !endTimeReached {
		return ErrInvalidClose
	}
	if v.closed {
		return ErrAlreadyClosed
	}
	v.closed = true
	return nil
}

// Finalize freezes the offering outcome and activates exactly one claim
// ledger. The finalize latch commits before the funds release is attempted:
// a failed release returns ErrReleaseFailed but never rolls the state back —
// ReleaseFunds retries the transfer later.
func (v *Vault) Finalize(ctx context.Context, softCapReached bool) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.leave()

	if !v.closed {
		return ErrNotClosed
	}
	if v.finalized {
		return ErrAlreadyFinalized
	}

	v.finalized = true
	v.softCapAtFinalize = softCapReached

	if !softCapReached {
		v.refundsInitialized = true
		return v.cfg.Refunds.Activate(ctx, v.cfg.Account)
	}

	v.mintingInitialized = true
	if err := v.cfg.Minting.Activate(ctx, v.cfg.Account); err != nil {
		return err
	}
	return v.releaseLocked(ctx)
}

// ReleaseFunds retries the at-most-once funds release after a finalize-time
// transfer failure. Legal only on a finalized offering that reached its
// soft cap.
func (v *Vault) ReleaseFunds(ctx context.Context) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.leave()

	if !v.finalized || !v.softCapAtFinalize {
		return ErrNotFinalized
	}
	if v.fundsReleased {
		return nil
	}
	return v.releaseLocked(ctx)
}

// releaseLocked moves the vault's entire remaining investment-asset balance
// to the receiver. Caller holds the reentry guard.
func (v *Vault) releaseLocked(ctx context.Context) error {
	balance, err := v.cfg.Mover.Balance(ctx, v.cfg.Account)
	if err != nil {
		return fmt.Errorf("%w: read custody balance: %v", ErrReleaseFailed, err)
	}
	if balance.IsPositive() {
		if err := v.cfg.Mover.Move(ctx, v.cfg.Account, v.cfg.Receiver, balance); err != nil {
			return fmt.Errorf("%w: release %v to %s: %v", ErrReleaseFailed, balance, v.cfg.Receiver, err)
		}
	}
	v.fundsReleased = true
	return nil
}

// Disburse moves amount out of vault custody to an investor. Used by the
// activated claim ledger for refunds.
func (v *Vault) Disburse(ctx context.Context, to types.Address, amount types.Amount) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.leave()

	if err := v.cfg.Mover.Move(ctx, v.cfg.Account, to, amount); err != nil {
		return fmt.Errorf("%w: disburse %v to %s: %v", ErrTransferFailed, amount, to, err)
	}
	return nil
}

// Read accessors. All are pure reads, safe in any state; unknown addresses
// report zero values.

// Investment returns the net amount recorded for an investor.
func (v *Vault) Investment(addr types.Address) types.Amount {
	if rec, ok := v.records[addr]; ok {
		return rec.Invested
	}
	return types.Zero(v.cfg.InvestmentAsset)
}

// Allocation returns the token allocation recorded for an investor.
func (v *Vault) Allocation(addr types.Address) types.Amount {
	if rec, ok := v.records[addr]; ok {
		return rec.Allocation
	}
	return types.Zero(v.cfg.SecurityAsset)
}

// RefundClaimed reports the investor's refund claim flag.
func (v *Vault) RefundClaimed(addr types.Address) bool {
	rec, ok := v.records[addr]
	return ok && rec.RefundClaimed
}

// TokensClaimed reports the investor's delivery claim flag.
func (v *Vault) TokensClaimed(addr types.Address) bool {
	rec, ok := v.records[addr]
	return ok && rec.TokensClaimed
}

// SetRefundClaimed flips the investor's refund claim flag. Reserved for the
// activated refund ledger; clearing is legal only to roll back a failed
// payout within the same operation.
func (v *Vault) SetRefundClaimed(addr types.Address, claimed bool) {
	if rec, ok := v.records[addr]; ok {
		rec.RefundClaimed = claimed
		rec.Touch()
	}
}

// SetTokensClaimed flips the investor's delivery claim flag. Reserved for
// the activated delivery ledger.
func (v *Vault) SetTokensClaimed(addr types.Address, claimed bool) {
	if rec, ok := v.records[addr]; ok {
		rec.TokensClaimed = claimed
		rec.Touch()
	}
}

// Record returns a copy of the investor's record, or nil if unknown.
func (v *Vault) Record(addr types.Address) *InvestorRecord {
	if rec, ok := v.records[addr]; ok {
		return rec.Clone()
	}
	return nil
}

// Investors returns the registry in first-seen order.
func (v *Vault) Investors() []types.Address {
	out := make([]types.Address, len(v.order))
	copy(out, v.order)
	return out
}

// Records returns copies of all investor records in first-seen order.
func (v *Vault) Records() []*InvestorRecord {
	out := make([]*InvestorRecord, 0, len(v.order))
	for _, addr := range v.order {
		out = append(out, v.records[addr].Clone())
	}
	return out
}

// TotalInvested returns the vault-wide net invested total.
func (v *Vault) TotalInvested() types.Amount { return v.totalInvested }

// TotalAllocated returns the vault-wide token allocation total.
func (v *Vault) TotalAllocated() types.Amount { return v.totalAllocated }

// Account returns the custody account address.
func (v *Vault) Account() types.Address { return v.cfg.Account }

// IsClosed reports the one-way closed latch.
func (v *Vault) IsClosed() bool { return v.closed }

// IsFinalized reports the one-way finalized latch.
func (v *Vault) IsFinalized() bool { return v.finalized }

// IsSoftCapReached reports the outcome frozen at finalize time. False
// before finalization.
func (v *Vault) IsSoftCapReached() bool { return v.softCapAtFinalize }

// RefundsInitialized reports whether the refund ledger was activated.
func (v *Vault) RefundsInitialized() bool { return v.refundsInitialized }

// MintingInitialized reports whether the delivery ledger was activated.
func (v *Vault) MintingInitialized() bool { return v.mintingInitialized }

// FundsReleased reports whether the raised funds reached the receiver.
func (v *Vault) FundsReleased() bool { return v.fundsReleased }

// State snapshots the restorable portion of the vault.
func (v *Vault) State() State {
	return State{
		Records:            v.Records(),
		Closed:             v.closed,
		Finalized:          v.finalized,
		SoftCapAtFinalize:  v.softCapAtFinalize,
		RefundsInitialized: v.refundsInitialized,
		MintingInitialized: v.mintingInitialized,
		FundsReleased:      v.fundsReleased,
	}
}
