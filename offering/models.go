// Package offering defines the terms and persisted state of a single
// security token offering.
package offering

import (
	"errors"
	"time"

	"github.com/xraph/sto/id"
	"github.com/xraph/sto/types"
)

// Sentinel errors for term validation. These are configuration errors:
// the caller must change the input before retrying.
var (
	ErrInvalidWindow      = errors.New("offering: end time must be after start time")
	ErrUnsetWindow        = errors.New("offering: end time is unset")
	ErrInvalidCaps        = errors.New("offering: soft cap must be positive and not exceed hard cap")
	ErrInvalidRate        = errors.New("offering: price per token must be positive")
	ErrMissingReceiver    = errors.New("offering: funds receiver address is required")
	ErrMissingAccounts    = errors.New("offering: controller and escrow accounts are required")
	ErrAssetMismatch      = errors.New("offering: amounts denominate the wrong asset")
	ErrNegativeMinimum    = errors.New("offering: minimum investment cannot be negative")
)

// Status describes where the offering is in its lifecycle.
// Transitions only move forward: Open → Closed → Minting or Refunding.
type Status string

const (
	StatusOpen      Status = "open"      // Accepting purchases within the time window
	StatusClosed    Status = "closed"    // No more purchases; awaiting finalization
	StatusMinting   Status = "minting"   // Finalized with soft cap reached; tokens deliverable
	StatusRefunding Status = "refunding" // Finalized below soft cap; refunds claimable
)

// Terms are the immutable parameters of an offering. They are fixed at
// configuration time and never change afterward.
type Terms struct {
	// StartTime and EndTime bound the purchase window. A zero EndTime
	// means the offering is not yet configured.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// HardCap is the maximum sellable token amount; SoftCap is the
	// minimum sold for the raise to succeed. Both denominate the
	// security asset.
	HardCap types.Amount `json:"hard_cap"`
	SoftCap types.Amount `json:"soft_cap"`

	// PricePerToken is the cost of one security token unit, denominated
	// in the investment asset. Used by the default fixed-rate pricing.
	PricePerToken types.Amount `json:"price_per_token"`

	// MinInvestment is the smallest accepted purchase, in investment
	// asset units. Zero disables the minimum.
	MinInvestment types.Amount `json:"min_investment"`

	// InvestmentAsset and SecurityAsset are the asset codes of the two
	// sides of the exchange.
	InvestmentAsset string `json:"investment_asset"`
	SecurityAsset   string `json:"security_asset"`

	// FundsReceiver receives the raised funds on successful finalization.
	FundsReceiver types.Address `json:"funds_receiver"`

	// ControllerAccount holds funds in flight during a purchase;
	// EscrowAccount is the vault's custody account.
	ControllerAccount types.Address `json:"controller_account"`
	EscrowAccount     types.Address `json:"escrow_account"`

	// AllowBeneficialInvestments permits a caller to purchase on behalf
	// of a different beneficiary address.
	AllowBeneficialInvestments bool `json:"allow_beneficial_investments"`
}

// Validate checks the terms for internal consistency.
func (t Terms) Validate() error {
	if t.EndTime.IsZero() {
		return ErrUnsetWindow
	}
	if !t.EndTime.After(t.StartTime) {
		return ErrInvalidWindow
	}
	if !t.HardCap.IsPositive() || !t.SoftCap.IsPositive() || t.HardCap.Units < t.SoftCap.Units {
		return ErrInvalidCaps
	}
	if !t.PricePerToken.IsPositive() {
		return ErrInvalidRate
	}
	if t.MinInvestment.Units < 0 {
		return ErrNegativeMinimum
	}
	if t.FundsReceiver.IsZero() {
		return ErrMissingReceiver
	}
	if t.ControllerAccount.IsZero() || t.EscrowAccount.IsZero() {
		return ErrMissingAccounts
	}
	if t.HardCap.Asset != t.SecurityAsset || t.SoftCap.Asset != t.SecurityAsset {
		return ErrAssetMismatch
	}
	if t.PricePerToken.Asset != t.InvestmentAsset ||
		(t.MinInvestment.Units > 0 && t.MinInvestment.Asset != t.InvestmentAsset) {
		return ErrAssetMismatch
	}
	return nil
}

// Configured reports whether the terms have been set. A zero EndTime is
// the unconfigured marker.
func (t Terms) Configured() bool { return !t.EndTime.IsZero() }

// Open reports whether now falls within the purchase window.
func (t Terms) Open(now time.Time) bool {
	return !now.Before(t.StartTime) && !now.After(t.EndTime)
}

// Ended reports whether now is past the end of the purchase window.
func (t Terms) Ended(now time.Time) bool { return now.After(t.EndTime) }

// Snapshot is the persisted state of an offering: the immutable terms plus
// the mutable settlement counters and one-way latches.
type Snapshot struct {
	types.Entity
	ID    id.OfferingID `json:"id"`
	Terms Terms         `json:"terms"`

	// Monotonically increasing settlement counters.
	TokensSold  types.Amount `json:"tokens_sold"`
	FundsRaised types.Amount `json:"funds_raised"`

	// One-way latches. Closed and Finalized never revert to false.
	Closed    bool `json:"closed"`
	Finalized bool `json:"finalized"`

	// SoftCapAtFinalize is frozen at finalize time and selects the
	// settlement outcome. Meaningless until Finalized is true.
	SoftCapAtFinalize bool `json:"soft_cap_at_finalize"`

	// Ledger activation latches; at most one is ever set.
	RefundsInitialized bool `json:"refunds_initialized"`
	MintingInitialized bool `json:"minting_initialized"`

	// FundsReleased records whether the raised funds reached the
	// receiver. May lag Finalized when the release transfer failed and
	// awaits operational recovery.
	FundsReleased bool `json:"funds_released"`
}

// Status derives the lifecycle status from the latches.
func (s *Snapshot) Status() Status {
	switch {
	case s.Finalized && s.SoftCapAtFinalize:
		return StatusMinting
	case s.Finalized:
		return StatusRefunding
	case s.Closed:
		return StatusClosed
	default:
		return StatusOpen
	}
}
