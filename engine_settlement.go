package sto

import (
	"context"
	"errors"

	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/types"
)

// Finalize closes the offering (if not already closed) and freezes its
// outcome, activating exactly one claim ledger. Legal only after the end
// time has passed or the hard cap is reached. Requires the operator
// capability; the hard-cap auto-trigger inside Purchase bypasses the
// capability check because the engine is calling itself.
//
// When the soft cap was reached, finalization releases the raised funds to
// the receiver and pushes token delivery to every registered investor. A
// funds-release failure leaves the finalize latch set and returns
// ErrReleaseFailed; ReleaseFunds retries it.
func (e *Engine) Finalize(ctx context.Context, caller types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return ErrNotConfigured
	}
	if !e.capabilities.HasCapability(caller, RoleOperator) {
		return ErrUnauthorized
	}
	return e.finalizeLocked(ctx)
}

func (e *Engine) finalizeLocked(ctx context.Context) error {
	now := e.clock()
	ended := e.terms.Ended(now)
	hardCap := e.tracker.HardCapReached()

	if !ended && !hardCap {
		return ErrNotYetClosable
	}
	if e.vault.IsFinalized() {
		return escrow.ErrAlreadyFinalized
	}

	if !e.vault.IsClosed() {
		if err := e.vault.Close(hardCap, ended); err != nil {
			return err
		}
		reason := "end_time"
		if hardCap {
			reason = "hard_cap"
		}
		entry := journal.New(e.offeringID, journal.KindClosed, now)
		entry.Note = reason
		e.appendEventLocked(ctx, entry)
		e.plugins.EmitOfferingClosed(ctx, reason)
		e.logger.Info("offering closed",
			"reason", reason,
			"tokens_sold", e.tracker.TokensSold().String(),
		)
	}

	softCap := e.tracker.IsSoftCapReached()

	// The finalize latch commits inside the vault even when the funds
	// release fails; only the release stays pending in that case.
	finErr := e.vault.Finalize(ctx, softCap)
	if finErr != nil && !errors.Is(finErr, escrow.ErrReleaseFailed) {
		return finErr
	}

	outcome := "refunding"
	if softCap {
		outcome = "minting"
	}
	entry := journal.New(e.offeringID, journal.KindFinalized, now)
	entry.Note = outcome
	entry.Tokens = e.tracker.TokensSold()
	e.appendEventLocked(ctx, entry)
	e.plugins.EmitOfferingFinalized(ctx, softCap)
	e.logger.Info("offering finalized",
		"outcome", outcome,
		"tokens_sold", e.tracker.TokensSold().String(),
		"funds_raised", e.vault.TotalInvested().String(),
	)

	if e.vault.FundsReleased() {
		released := journal.New(e.offeringID, journal.KindFundsReleased, now)
		released.Invested = e.vault.TotalInvested()
		e.appendEventLocked(ctx, released)
		e.plugins.EmitFundsReleased(ctx, e.vault.TotalInvested().Units, e.terms.InvestmentAsset)
	}

	if softCap {
		e.pushDeliveriesLocked(ctx)
	}

	e.persistOfferingLocked(ctx)
	return finErr
}

// pushDeliveriesLocked proactively delivers every registered investor's
// allocation after a successful finalize. Per-investor failures stay
// retryable through ClaimTokens; they never abort the push.
func (e *Engine) pushDeliveriesLocked(ctx context.Context) {
	res, err := e.minting.BatchDeliver(ctx, e.vault.Investors())
	if err != nil {
		e.logger.Warn("delivery push failed", "error", err)
		return
	}

	now := e.clock()
	for _, investor := range res.Delivered {
		e.persistInvestorLocked(ctx, investor)
		entry := journal.New(e.offeringID, journal.KindTokensDelivered, now)
		entry.Investor = investor
		entry.Tokens = e.vault.Allocation(investor)
		e.appendEventLocked(ctx, entry)
		e.plugins.EmitTokensDelivered(ctx, investor.String(), e.vault.Allocation(investor).Units)
	}
	if len(res.Failed) > 0 {
		e.logger.Warn("delivery push left failures for pull claims",
			"delivered", len(res.Delivered),
			"failed", len(res.Failed),
		)
	}
}

// ClaimRefund pays the investor's recorded investment back, exactly once.
// Legal only after the offering finalized below its soft cap.
func (e *Engine) ClaimRefund(ctx context.Context, investor types.Address) (types.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return types.Amount{}, ErrNotConfigured
	}

	amount, err := e.refunds.Claim(ctx, investor)
	if err != nil {
		return types.Amount{}, err
	}

	e.persistInvestorLocked(ctx, investor)
	entry := journal.New(e.offeringID, journal.KindRefundClaimed, e.clock())
	entry.Investor = investor
	entry.Invested = amount
	e.appendEventLocked(ctx, entry)
	e.plugins.EmitRefundClaimed(ctx, investor.String(), amount.Units)

	e.logger.Info("refund claimed",
		"investor", investor.String(),
		"amount", amount.String(),
	)
	return amount, nil
}

// ClaimTokens issues the investor's allocation, exactly once. Legal only
// after the offering finalized at or above its soft cap. This is the pull
// fallback for investors the finalize-time push could not reach.
func (e *Engine) ClaimTokens(ctx context.Context, investor types.Address) (types.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return types.Amount{}, ErrNotConfigured
	}
	return e.deliverLocked(ctx, investor)
}

// DeliverTokens issues an investor's allocation on their behalf. Requires
// the operator capability.
func (e *Engine) DeliverTokens(ctx context.Context, caller, investor types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return ErrNotConfigured
	}
	if !e.capabilities.HasCapability(caller, RoleOperator) {
		return ErrUnauthorized
	}
	_, err := e.deliverLocked(ctx, investor)
	return err
}

func (e *Engine) deliverLocked(ctx context.Context, investor types.Address) (types.Amount, error) {
	amount, err := e.minting.Deliver(ctx, investor)
	if err != nil {
		return types.Amount{}, err
	}

	e.persistInvestorLocked(ctx, investor)
	entry := journal.New(e.offeringID, journal.KindTokensDelivered, e.clock())
	entry.Investor = investor
	entry.Tokens = amount
	e.appendEventLocked(ctx, entry)
	e.plugins.EmitTokensDelivered(ctx, investor.String(), amount.Units)

	e.logger.Info("tokens delivered",
		"investor", investor.String(),
		"tokens", amount.String(),
	)
	return amount, nil
}

// ReleaseFunds retries the at-most-once funds release after a finalize-time
// ErrReleaseFailed. Requires the operator capability. Idempotent once the
// release has succeeded.
func (e *Engine) ReleaseFunds(ctx context.Context, caller types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return ErrNotConfigured
	}
	if !e.capabilities.HasCapability(caller, RoleOperator) {
		return ErrUnauthorized
	}

	alreadyReleased := e.vault.FundsReleased()
	if err := e.vault.ReleaseFunds(ctx); err != nil {
		return err
	}
	if alreadyReleased {
		return nil
	}

	e.persistOfferingLocked(ctx)
	entry := journal.New(e.offeringID, journal.KindFundsReleased, e.clock())
	entry.Invested = e.vault.TotalInvested()
	e.appendEventLocked(ctx, entry)
	e.plugins.EmitFundsReleased(ctx, e.vault.TotalInvested().Units, e.terms.InvestmentAsset)

	e.logger.Info("funds released",
		"amount", e.vault.TotalInvested().String(),
	)
	return nil
}
