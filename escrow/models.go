// Package escrow implements the fund-custody vault at the center of the
// offering settlement engine.
//
// The vault records investor deposits, enforces the one-way
// Open → Closed → Finalized state machine, and on finalization activates
// exactly one of the two claim ledgers. It is the sole owner of investor
// records; the claim ledgers read and flag them through vault accessors.
package escrow

import (
	"github.com/xraph/sto/types"
)

// InvestorRecord is the per-investor bookkeeping entry. Created on first
// successful deposit, mutated additively by later deposits, never deleted.
// After the offering closes it is read-only except for the one-shot claim
// flags.
type InvestorRecord struct {
	types.Entity
	Address types.Address `json:"address"`

	// Invested is the total net amount escrowed for this investor;
	// Allocation is the total security tokens owed.
	Invested   types.Amount `json:"invested"`
	Allocation types.Amount `json:"allocation"`

	// Position is the zero-based first-seen order, used for batch
	// delivery. Every investor with Invested > 0 holds exactly one
	// position.
	Position int `json:"position"`

	// One-way claim flags. At most one will ever be set, matching the
	// offering's refund-or-mint outcome.
	RefundClaimed bool `json:"refund_claimed"`
	TokensClaimed bool `json:"tokens_claimed"`
}

// Clone returns a copy safe to hand outside the vault.
func (r *InvestorRecord) Clone() *InvestorRecord {
	c := *r
	return &c
}
