// Package cap tracks tokens sold against the hard and soft cap thresholds.
//
// The tracker is pure accounting: it never moves assets and has no reentrant
// surface. One tracker belongs to exactly one offering instance.
package cap

import (
	"errors"

	"github.com/xraph/sto/types"
)

// ErrCapExceeded is returned when a sale would push tokens sold past the
// hard cap. Capacity errors are expected and retriable with a smaller amount.
var ErrCapExceeded = errors.New("cap: sale exceeds hard cap")

// Tracker accumulates tokens sold for a single offering.
type Tracker struct {
	hardCap types.Amount
	softCap types.Amount
	sold    types.Amount
}

// NewTracker creates a tracker for the given cap thresholds. Both caps
// denominate the security asset; soft cap must not exceed hard cap (the
// offering terms are validated before a tracker is built).
func NewTracker(hardCap, softCap types.Amount) *Tracker {
	return &Tracker{
		hardCap: hardCap,
		softCap: softCap,
		sold:    types.Zero(hardCap.Asset),
	}
}

// Restore rebuilds a tracker from a persisted tokens-sold counter.
func Restore(hardCap, softCap, sold types.Amount) *Tracker {
	return &Tracker{hardCap: hardCap, softCap: softCap, sold: sold}
}

// RecordSale adds amount to tokens sold. Fails with ErrCapExceeded when the
// sale would cross the hard cap, leaving the counter unchanged.
func (t *Tracker) RecordSale(amount types.Amount) error {
	next := t.sold.Add(amount)
	if next.GreaterThan(t.hardCap) {
		return ErrCapExceeded
	}
	t.sold = next
	return nil
}

// Remaining returns the sellable capacity left under the hard cap.
func (t *Tracker) Remaining() types.Amount {
	return t.hardCap.Sub(t.sold)
}

// TokensSold returns the cumulative tokens sold.
func (t *Tracker) TokensSold() types.Amount { return t.sold }

// HardCap returns the hard cap threshold.
func (t *Tracker) HardCap() types.Amount { return t.hardCap }

// SoftCap returns the soft cap threshold.
func (t *Tracker) SoftCap() types.Amount { return t.softCap }

// HardCapReached reports whether tokens sold has reached the hard cap.
// Idempotent derived query, always consistent with TokensSold.
func (t *Tracker) HardCapReached() bool {
	return !t.sold.LessThan(t.hardCap)
}

// IsSoftCapReached reports whether tokens sold has reached the soft cap.
func (t *Tracker) IsSoftCapReached() bool {
	return !t.sold.LessThan(t.softCap)
}
