// Package observability provides a metrics plugin for the offering engine
// that records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/sto/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnOfferingConfigured = (*MetricsExtension)(nil)
	_ plugin.OnOfferingClosed     = (*MetricsExtension)(nil)
	_ plugin.OnOfferingFinalized  = (*MetricsExtension)(nil)
	_ plugin.OnFundsReleased      = (*MetricsExtension)(nil)
	_ plugin.OnDepositRecorded    = (*MetricsExtension)(nil)
	_ plugin.OnCapMilestone       = (*MetricsExtension)(nil)
	_ plugin.OnRefundClaimed      = (*MetricsExtension)(nil)
	_ plugin.OnTokensDelivered    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records offering lifecycle metrics.
// Register it as an engine plugin to automatically track settlement metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Offering lifecycle metrics
	OfferingConfigured Counter
	ClosedByHardCap    Counter
	ClosedByEndTime    Counter
	FinalizedMinting   Counter
	FinalizedRefunding Counter
	FundsReleased      Counter
	FundsReleasedTotal Histogram

	// Purchase metrics
	Deposits        Counter
	DepositAmount   Histogram
	TokensAllocated Histogram
	SoftCapCrossed  Counter
	HardCapReached  Counter

	// Claim metrics
	RefundsClaimed  Counter
	RefundAmount    Histogram
	TokensDelivered Counter
	DeliverySize    Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Offering lifecycle metrics
		OfferingConfigured: factory.Counter("sto.offering.configured"),
		ClosedByHardCap:    factory.Counter("sto.offering.closed.hard_cap"),
		ClosedByEndTime:    factory.Counter("sto.offering.closed.end_time"),
		FinalizedMinting:   factory.Counter("sto.offering.finalized.minting"),
		FinalizedRefunding: factory.Counter("sto.offering.finalized.refunding"),
		FundsReleased:      factory.Counter("sto.funds.released"),
		FundsReleasedTotal: factory.Histogram("sto.funds.released.total"),

		// Purchase metrics
		Deposits:        factory.Counter("sto.deposit.recorded"),
		DepositAmount:   factory.Histogram("sto.deposit.amount"),
		TokensAllocated: factory.Histogram("sto.deposit.tokens"),
		SoftCapCrossed:  factory.Counter("sto.cap.soft_cap"),
		HardCapReached:  factory.Counter("sto.cap.hard_cap"),

		// Claim metrics
		RefundsClaimed:  factory.Counter("sto.refund.claimed"),
		RefundAmount:    factory.Histogram("sto.refund.amount"),
		TokensDelivered: factory.Counter("sto.delivery.completed"),
		DeliverySize:    factory.Histogram("sto.delivery.tokens"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Offering lifecycle hooks
// ──────────────────────────────────────────────────

// OnOfferingConfigured implements plugin.OnOfferingConfigured.
func (m *MetricsExtension) OnOfferingConfigured(_ context.Context, _ interface{}) error {
	m.OfferingConfigured.Inc()
	return nil
}

// OnOfferingClosed implements plugin.OnOfferingClosed.
func (m *MetricsExtension) OnOfferingClosed(_ context.Context, reason string) error {
	if reason == "hard_cap" {
		m.ClosedByHardCap.Inc()
	} else {
		m.ClosedByEndTime.Inc()
	}
	return nil
}

// OnOfferingFinalized implements plugin.OnOfferingFinalized.
func (m *MetricsExtension) OnOfferingFinalized(_ context.Context, softCapReached bool) error {
	if softCapReached {
		m.FinalizedMinting.Inc()
	} else {
		m.FinalizedRefunding.Inc()
	}
	return nil
}

// OnFundsReleased implements plugin.OnFundsReleased.
func (m *MetricsExtension) OnFundsReleased(_ context.Context, units int64, _ string) error {
	m.FundsReleased.Inc()
	m.FundsReleasedTotal.Observe(float64(units))
	return nil
}

// ──────────────────────────────────────────────────
// Purchase hooks
// ──────────────────────────────────────────────────

// OnDepositRecorded implements plugin.OnDepositRecorded.
func (m *MetricsExtension) OnDepositRecorded(_ context.Context, _ string, invested, tokens int64) error {
	m.Deposits.Inc()
	m.DepositAmount.Observe(float64(invested))
	m.TokensAllocated.Observe(float64(tokens))
	return nil
}

// OnCapMilestone implements plugin.OnCapMilestone.
func (m *MetricsExtension) OnCapMilestone(_ context.Context, milestone string, _ int64) error {
	if milestone == "hard_cap" {
		m.HardCapReached.Inc()
	} else {
		m.SoftCapCrossed.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Claim hooks
// ──────────────────────────────────────────────────

// OnRefundClaimed implements plugin.OnRefundClaimed.
func (m *MetricsExtension) OnRefundClaimed(_ context.Context, _ string, units int64) error {
	m.RefundsClaimed.Inc()
	m.RefundAmount.Observe(float64(units))
	return nil
}

// OnTokensDelivered implements plugin.OnTokensDelivered.
func (m *MetricsExtension) OnTokensDelivered(_ context.Context, _ string, tokens int64) error {
	m.TokensDelivered.Inc()
	m.DeliverySize.Observe(float64(tokens))
	return nil
}
