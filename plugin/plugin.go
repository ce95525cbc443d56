// Package plugin provides an extensible plugin system for the offering
// engine. Plugins can hook into settlement lifecycle events to extend
// functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Offering lifecycle hooks
// ──────────────────────────────────────────────────

// OnOfferingConfigured is called once when the offering terms are set.
type OnOfferingConfigured interface {
	Plugin
	OnOfferingConfigured(ctx context.Context, terms interface{}) error
}

// OnOfferingClosed is called when the purchase window closes.
// Reason is "hard_cap" or "end_time".
type OnOfferingClosed interface {
	Plugin
	OnOfferingClosed(ctx context.Context, reason string) error
}

// OnOfferingFinalized is called when the outcome is frozen.
type OnOfferingFinalized interface {
	Plugin
	OnOfferingFinalized(ctx context.Context, softCapReached bool) error
}

// OnFundsReleased is called when raised funds reach the receiver.
type OnFundsReleased interface {
	Plugin
	OnFundsReleased(ctx context.Context, units int64, asset string) error
}

// ──────────────────────────────────────────────────
// Purchase hooks
// ──────────────────────────────────────────────────

// OnDepositRecorded is called after an investment is escrowed.
type OnDepositRecorded interface {
	Plugin
	OnDepositRecorded(ctx context.Context, investor string, invested, tokens int64) error
}

// OnCapMilestone is called when tokens sold cross the soft cap or reach
// the hard cap. Milestone is "soft_cap" or "hard_cap".
type OnCapMilestone interface {
	Plugin
	OnCapMilestone(ctx context.Context, milestone string, tokensSold int64) error
}

// ──────────────────────────────────────────────────
// Claim hooks
// ──────────────────────────────────────────────────

// OnRefundClaimed is called after an investor is refunded.
type OnRefundClaimed interface {
	Plugin
	OnRefundClaimed(ctx context.Context, investor string, units int64) error
}

// OnTokensDelivered is called after an investor receives tokens.
type OnTokensDelivered interface {
	Plugin
	OnTokensDelivered(ctx context.Context, investor string, tokens int64) error
}
