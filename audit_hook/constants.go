package audithook

// Action constants for audit events.
const (
	// Offering actions
	ActionOfferingConfigured = "offering.configured"
	ActionOfferingClosed     = "offering.closed"
	ActionOfferingFinalized  = "offering.finalized"
	ActionFundsReleased      = "funds.released"

	// Purchase actions
	ActionDepositRecorded = "deposit.recorded"
	ActionCapMilestone    = "cap.milestone"

	// Claim actions
	ActionRefundClaimed   = "refund.claimed"
	ActionTokensDelivered = "tokens.delivered"
)

// Resource constants for audit events.
const (
	ResourceOffering = "offering"
	ResourceDeposit  = "deposit"
	ResourceRefund   = "refund"
	ResourceDelivery = "delivery"
	ResourceFunds    = "funds"
)

// Category constants for audit events.
const (
	CategoryOffering   = "offering"
	CategorySettlement = "settlement"
	CategoryCustody    = "custody"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
