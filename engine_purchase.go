package sto

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/types"
)

// Receipt summarizes a committed purchase.
type Receipt struct {
	DepositID   id.DepositID  `json:"deposit_id"`
	Caller      types.Address `json:"caller"`
	Beneficiary types.Address `json:"beneficiary"`

	// Gross is the amount pulled from the caller; Fee went to the fee
	// wallet, Invested was escrowed, Returned went back to the caller
	// (sub-token remainder plus any hard-cap truncation excess).
	// Gross == Fee + Invested + Returned.
	Gross    types.Amount `json:"gross"`
	Fee      types.Amount `json:"fee"`
	Invested types.Amount `json:"invested"`
	Returned types.Amount `json:"returned"`

	Tokens types.Amount `json:"tokens"`
	At     time.Time    `json:"at"`
}

// Purchase processes one investment: pull the gross amount from the caller,
// split the fee, price the net into tokens, escrow the cost, and return any
// unconvertible remainder to the caller.
//
// The purchase is atomic from the caller's perspective: every failure after
// the gross pull and before the escrow deposit pushes the pulled funds back.
// The deposit is the commit point; the remainder return after it cannot
// revert the committed deposit, so a remainder-return failure is reported
// while the purchase stays recorded.
//
// Crossing the hard cap truncates the sale to the remaining capacity and
// returns the excess with the remainder. Reaching the hard cap auto-triggers
// close and finalize.
func (e *Engine) Purchase(ctx context.Context, caller, beneficiary types.Address, amount types.Amount) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return nil, ErrNotConfigured
	}
	if beneficiary.IsZero() {
		beneficiary = caller
	}
	if beneficiary != caller && !e.terms.AllowBeneficialInvestments {
		return nil, ErrBeneficiaryMismatch
	}
	if !amount.IsPositive() {
		return nil, ErrZeroAmount
	}
	if amount.Asset != e.terms.InvestmentAsset {
		return nil, fmt.Errorf("%w: got %q, want %q", offering.ErrAssetMismatch, amount.Asset, e.terms.InvestmentAsset)
	}
	if e.vault.IsFinalized() || e.vault.IsClosed() {
		return nil, ErrOfferingClosed
	}

	// Pull the gross amount into controller custody. From here until the
	// vault deposit commits, every failure path unwinds this pull.
	controller := e.terms.ControllerAccount
	if err := e.mover.Move(ctx, caller, controller, amount); err != nil {
		return nil, fmt.Errorf("%w: pull %v from %s: %v", ErrTransferFailed, amount, caller, err)
	}
	unwind := func(cause error) (*Receipt, error) {
		if err := e.mover.Move(ctx, controller, caller, amount); err != nil {
			e.logger.Error("purchase unwind failed, funds stranded in controller custody",
				"caller", caller.String(),
				"amount", amount.String(),
				"error", err,
			)
		}
		return nil, cause
	}

	if !e.eligibility.CanParticipate(beneficiary) {
		return unwind(ErrNotEligible)
	}
	now := e.clock()
	if !e.terms.Open(now) {
		return unwind(ErrOfferingNotOpen)
	}
	if e.tracker.HardCapReached() {
		return unwind(ErrHardCapReached)
	}

	fee := types.Zero(amount.Asset)
	net := amount
	if e.fees != nil {
		fee, net = e.fees.Split(amount)
	}

	if min := e.pricing.MinInvestment(); min.IsPositive() && net.LessThan(min) {
		return unwind(fmt.Errorf("%w: %v below %v", ErrBelowMinInvestment, net, min))
	}

	tokens, remainder, err := e.pricing.Quote(net)
	if err != nil {
		return unwind(err)
	}
	if tokens.IsZero() {
		return unwind(ErrNoTokensIssuable)
	}

	// Truncate at the hard cap: sell the remaining capacity and return the
	// excess with the remainder. Cost scales by the effective unit price of
	// the quote, exact for linear strategies.
	cost := net.Sub(remainder)
	if remaining := e.tracker.Remaining(); tokens.GreaterThan(remaining) {
		unitCost := cost.Units / tokens.Units
		tokens = remaining
		cost = types.NewAmount(unitCost*remaining.Units, cost.Asset)
	}
	returned := net.Sub(cost)

	// Route the fee before the deposit so a deposit failure can still
	// unwind everything.
	if fee.IsPositive() {
		if err := e.mover.Move(ctx, controller, e.fees.Wallet(), fee); err != nil {
			return unwind(fmt.Errorf("%w: fee %v to %s: %v", ErrTransferFailed, fee, e.fees.Wallet(), err))
		}
	}

	if err := e.vault.Deposit(ctx, controller, beneficiary, cost, tokens); err != nil {
		if fee.IsPositive() {
			if ferr := e.mover.Move(ctx, e.fees.Wallet(), controller, fee); ferr != nil {
				e.logger.Error("fee unwind failed",
					"fee", fee.String(),
					"error", ferr,
				)
			}
		}
		return unwind(err)
	}

	// Commit point passed: the cap update cannot fail (tokens were clamped
	// to remaining capacity under the engine mutex).
	if err := e.tracker.RecordSale(tokens); err != nil {
		e.logger.Error("cap update failed after committed deposit",
			"tokens", tokens.String(),
			"error", err,
		)
		return nil, err
	}

	receipt := &Receipt{
		DepositID:   id.NewDepositID(),
		Caller:      caller,
		Beneficiary: beneficiary,
		Gross:       amount,
		Fee:         fee,
		Invested:    cost,
		Returned:    returned,
		Tokens:      tokens,
		At:          now,
	}

	// Remainder return is the last asset move; its failure cannot revert
	// the committed deposit.
	var returnErr error
	if returned.IsPositive() {
		if err := e.mover.Move(ctx, controller, caller, returned); err != nil {
			returnErr = fmt.Errorf("%w: return %v to %s: %v", ErrTransferFailed, returned, caller, err)
			e.logger.Warn("remainder return failed, purchase stays committed",
				"caller", caller.String(),
				"returned", returned.String(),
				"error", err,
			)
		}
	}

	e.persistOfferingLocked(ctx)
	e.persistInvestorLocked(ctx, beneficiary)

	entry := journal.New(e.offeringID, journal.KindDeposit, now)
	entry.Investor = beneficiary
	entry.Invested = cost
	entry.Tokens = tokens
	e.appendEventLocked(ctx, entry)
	e.plugins.EmitDepositRecorded(ctx, beneficiary.String(), cost.Units, tokens.Units)

	e.logger.Debug("purchase recorded",
		"caller", caller.String(),
		"beneficiary", beneficiary.String(),
		"invested", cost.String(),
		"tokens", tokens.String(),
		"returned", returned.String(),
	)

	e.announceMilestonesLocked(ctx, now)

	if e.tracker.HardCapReached() {
		// Auto-trigger: the engine itself closes and finalizes. A release
		// failure here leaves the finalize latch set and is recovered via
		// ReleaseFunds, so the committed purchase still succeeds.
		if err := e.finalizeLocked(ctx); err != nil {
			e.logger.Warn("auto-finalize after hard cap reported an error",
				"error", err,
			)
		}
	}

	if returnErr != nil {
		return receipt, returnErr
	}
	return receipt, nil
}

// announceMilestonesLocked journals cap milestones exactly once each.
func (e *Engine) announceMilestonesLocked(ctx context.Context, now time.Time) {
	if !e.softCapAnnounced && e.tracker.IsSoftCapReached() {
		e.softCapAnnounced = true
		entry := journal.New(e.offeringID, journal.KindSoftCapReached, now)
		entry.Tokens = e.tracker.TokensSold()
		e.appendEventLocked(ctx, entry)
		e.plugins.EmitCapMilestone(ctx, "soft_cap", e.tracker.TokensSold().Units)
		e.logger.Info("soft cap reached",
			"tokens_sold", e.tracker.TokensSold().String(),
		)
	}
	if e.tracker.HardCapReached() {
		entry := journal.New(e.offeringID, journal.KindHardCapReached, now)
		entry.Tokens = e.tracker.TokensSold()
		e.appendEventLocked(ctx, entry)
		e.plugins.EmitCapMilestone(ctx, "hard_cap", e.tracker.TokensSold().Units)
		e.logger.Info("hard cap reached",
			"tokens_sold", e.tracker.TokensSold().String(),
		)
	}
}
