package escrow

import "errors"

// Sentinel errors for the vault state machine. State-machine violations
// signal an ordering bug in the caller and are never silently ignored;
// transfer failures are resource errors and leave state unchanged.
var (
	ErrUnauthorized     = errors.New("escrow: caller is not the offering controller")
	ErrOfferingClosed   = errors.New("escrow: offering is closed")
	ErrAlreadyClosed    = errors.New("escrow: offering already closed")
	ErrInvalidClose     = errors.New("escrow: close requires a cap or end-time trigger")
	ErrNotClosed        = errors.New("escrow: offering not yet closed")
	ErrAlreadyFinalized = errors.New("escrow: offering already finalized")
	ErrNotFinalized     = errors.New("escrow: offering not finalized")
	ErrTransferFailed   = errors.New("escrow: asset transfer failed")
	ErrReleaseFailed    = errors.New("escrow: funds release failed")
	ErrReentrantCall    = errors.New("escrow: reentrant call rejected")
	ErrInvalidDeposit   = errors.New("escrow: deposit amounts must be positive")
)
