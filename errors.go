package sto

import (
	"errors"

	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/cap"
	"github.com/xraph/sto/delivery"
	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/refund"
)

// Sentinel errors for the purchase orchestration layer.
var (
	// Configuration errors
	ErrAlreadyConfigured = errors.New("sto: offering already configured")
	ErrNotConfigured     = errors.New("sto: offering not configured")
	ErrMissingAssets     = errors.New("sto: asset collaborators are required")

	// Authorization errors
	ErrUnauthorized = errors.New("sto: caller lacks the required capability")

	// Purchase validation errors
	ErrBeneficiaryMismatch = errors.New("sto: beneficiary differs from caller and beneficial investments are disabled")
	ErrZeroAmount          = errors.New("sto: invested amount must be positive")
	ErrNotEligible         = errors.New("sto: participant is not eligible")
	ErrOfferingNotOpen     = errors.New("sto: purchase outside the offering window")
	ErrHardCapReached      = errors.New("sto: hard cap already reached")
	ErrNoTokensIssuable    = errors.New("sto: invested amount buys zero tokens")
	ErrBelowMinInvestment  = errors.New("sto: invested amount below the minimum")

	// Finalization errors
	ErrNotYetClosable = errors.New("sto: offering cannot close before end time or hard cap")

	// Store errors
	ErrOfferingNotFound = errors.New("sto: offering not found")
	ErrInvestorNotFound = errors.New("sto: investor not found")
)

// Re-exported component sentinels so callers can classify failures without
// importing every subpackage.
var (
	ErrCapExceeded      = cap.ErrCapExceeded
	ErrOfferingClosed   = escrow.ErrOfferingClosed
	ErrAlreadyFinalized = escrow.ErrAlreadyFinalized
	ErrTransferFailed   = escrow.ErrTransferFailed
	ErrReleaseFailed    = escrow.ErrReleaseFailed
	ErrNothingToRefund  = refund.ErrNothingToRefund
	ErrNothingAllocated = delivery.ErrNothingAllocated
	ErrIssuanceFailed   = delivery.ErrIssuanceFailed
)

// IsAlreadyClaimed returns true for a second claim of either kind.
func IsAlreadyClaimed(err error) bool {
	return errors.Is(err, refund.ErrAlreadyClaimed) ||
		errors.Is(err, delivery.ErrAlreadyClaimed)
}

// IsStateViolation returns true for lifecycle-ordering violations. These
// signal a bug in the caller and must not be retried blindly.
func IsStateViolation(err error) bool {
	return errors.Is(err, ErrAlreadyConfigured) ||
		errors.Is(err, ErrNotConfigured) ||
		errors.Is(err, ErrNotYetClosable) ||
		errors.Is(err, escrow.ErrOfferingClosed) ||
		errors.Is(err, escrow.ErrAlreadyClosed) ||
		errors.Is(err, escrow.ErrInvalidClose) ||
		errors.Is(err, escrow.ErrNotClosed) ||
		errors.Is(err, escrow.ErrAlreadyFinalized) ||
		errors.Is(err, escrow.ErrNotFinalized) ||
		errors.Is(err, escrow.ErrReentrantCall) ||
		errors.Is(err, refund.ErrAlreadyActivated) ||
		errors.Is(err, refund.ErrNotActivated) ||
		errors.Is(err, refund.ErrAlreadyClaimed) ||
		errors.Is(err, refund.ErrReentrantCall) ||
		errors.Is(err, delivery.ErrAlreadyActivated) ||
		errors.Is(err, delivery.ErrNotActivated) ||
		errors.Is(err, delivery.ErrAlreadyClaimed) ||
		errors.Is(err, delivery.ErrReentrantCall)
}

// IsRetryable returns true for resource errors: the operation left state
// unchanged and may be retried once the underlying condition is fixed.
func IsRetryable(err error) bool {
	return errors.Is(err, escrow.ErrTransferFailed) ||
		errors.Is(err, escrow.ErrReleaseFailed) ||
		errors.Is(err, delivery.ErrIssuanceFailed) ||
		errors.Is(err, asset.ErrInsufficientBalance)
}

// IsCapacityError returns true for expected capacity failures, retriable
// with a different amount.
func IsCapacityError(err error) bool {
	return errors.Is(err, cap.ErrCapExceeded) ||
		errors.Is(err, ErrHardCapReached) ||
		errors.Is(err, ErrNoTokensIssuable) ||
		errors.Is(err, ErrBelowMinInvestment)
}

// IsAuthorizationError returns true for capability failures; not retriable
// by the same identity.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, escrow.ErrUnauthorized) ||
		errors.Is(err, refund.ErrUnauthorized) ||
		errors.Is(err, delivery.ErrUnauthorized)
}

// IsNotFound returns true when a store lookup found nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOfferingNotFound) ||
		errors.Is(err, ErrInvestorNotFound)
}
