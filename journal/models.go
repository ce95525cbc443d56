// Package journal defines the append-only settlement event records the
// engine emits for external monitoring. Events are observational: nothing
// in the engine's control flow depends on them.
package journal

import (
	"time"

	"github.com/xraph/sto/id"
	"github.com/xraph/sto/types"
)

// Kind classifies a settlement event.
type Kind string

const (
	KindConfigured      Kind = "configured"       // Terms were set
	KindDeposit         Kind = "deposit"          // Funds escrowed for an investor
	KindSoftCapReached  Kind = "soft_cap_reached" // Tokens sold crossed the soft cap
	KindHardCapReached  Kind = "hard_cap_reached" // Tokens sold reached the hard cap
	KindClosed          Kind = "closed"           // Offering closed
	KindFinalized       Kind = "finalized"        // Outcome frozen, one ledger activated
	KindFundsReleased   Kind = "funds_released"   // Raised funds reached the receiver
	KindRefundClaimed   Kind = "refund_claimed"   // Investor refunded
	KindTokensDelivered Kind = "tokens_delivered" // Investor received tokens
)

// Entry is one settlement event.
type Entry struct {
	ID         id.EventID    `json:"id"`
	OfferingID id.OfferingID `json:"offering_id"`
	Kind       Kind          `json:"kind"`

	// Investor is set for per-investor events, zero otherwise.
	Investor types.Address `json:"investor,omitempty"`

	// Invested and Tokens carry the amounts relevant to the event;
	// either may be zero depending on Kind.
	Invested types.Amount `json:"invested"`
	Tokens   types.Amount `json:"tokens"`

	// Note carries free-form detail (close trigger, finalize outcome).
	Note string `json:"note,omitempty"`

	At time.Time `json:"at"`
}

// New creates an entry stamped with a fresh event ID.
func New(offeringID id.OfferingID, kind Kind, at time.Time) *Entry {
	return &Entry{
		ID:         id.NewEventID(),
		OfferingID: offeringID,
		Kind:       kind,
		At:         at,
	}
}

// ListOpts filters journal queries.
type ListOpts struct {
	Kind     Kind
	Investor types.Address
	Limit    int
	Offset   int
}
