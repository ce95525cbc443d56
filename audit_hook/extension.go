// Package audithook bridges offering lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/sto/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnOfferingConfigured = (*Extension)(nil)
	_ plugin.OnOfferingClosed     = (*Extension)(nil)
	_ plugin.OnOfferingFinalized  = (*Extension)(nil)
	_ plugin.OnFundsReleased      = (*Extension)(nil)
	_ plugin.OnDepositRecorded    = (*Extension)(nil)
	_ plugin.OnCapMilestone       = (*Extension)(nil)
	_ plugin.OnRefundClaimed      = (*Extension)(nil)
	_ plugin.OnTokensDelivered    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges offering lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Offering lifecycle hooks
// ──────────────────────────────────────────────────

// OnOfferingConfigured implements plugin.OnOfferingConfigured.
func (e *Extension) OnOfferingConfigured(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionOfferingConfigured, SeverityInfo, OutcomeSuccess,
		ResourceOffering, "", CategoryOffering, nil,
		"event", "offering_configured",
	)
}

// OnOfferingClosed implements plugin.OnOfferingClosed.
func (e *Extension) OnOfferingClosed(ctx context.Context, reason string) error {
	return e.record(ctx, ActionOfferingClosed, SeverityInfo, OutcomeSuccess,
		ResourceOffering, "", CategoryOffering, nil,
		"event", "offering_closed",
		"close_reason", reason,
	)
}

// OnOfferingFinalized implements plugin.OnOfferingFinalized.
func (e *Extension) OnOfferingFinalized(ctx context.Context, softCapReached bool) error {
	outcome := "refunding"
	if softCapReached {
		outcome = "minting"
	}
	return e.record(ctx, ActionOfferingFinalized, SeverityInfo, OutcomeSuccess,
		ResourceOffering, "", CategorySettlement, nil,
		"event", "offering_finalized",
		"outcome", outcome,
	)
}

// OnFundsReleased implements plugin.OnFundsReleased.
func (e *Extension) OnFundsReleased(ctx context.Context, units int64, asset string) error {
	return e.record(ctx, ActionFundsReleased, SeverityInfo, OutcomeSuccess,
		ResourceFunds, "", CategoryCustody, nil,
		"event", "funds_released",
		"units", units,
		"asset", asset,
	)
}

// ──────────────────────────────────────────────────
// Purchase hooks
// ──────────────────────────────────────────────────

// OnDepositRecorded implements plugin.OnDepositRecorded.
func (e *Extension) OnDepositRecorded(ctx context.Context, investor string, invested, tokens int64) error {
	return e.record(ctx, ActionDepositRecorded, SeverityInfo, OutcomeSuccess,
		ResourceDeposit, investor, CategoryCustody, nil,
		"investor", investor,
		"invested", invested,
		"tokens", tokens,
	)
}

// OnCapMilestone implements plugin.OnCapMilestone.
func (e *Extension) OnCapMilestone(ctx context.Context, milestone string, tokensSold int64) error {
	return e.record(ctx, ActionCapMilestone, SeverityInfo, OutcomeSuccess,
		ResourceOffering, "", CategoryOffering, nil,
		"milestone", milestone,
		"tokens_sold", tokensSold,
	)
}

// ──────────────────────────────────────────────────
// Claim hooks
// ──────────────────────────────────────────────────

// OnRefundClaimed implements plugin.OnRefundClaimed.
func (e *Extension) OnRefundClaimed(ctx context.Context, investor string, units int64) error {
	return e.record(ctx, ActionRefundClaimed, SeverityInfo, OutcomeSuccess,
		ResourceRefund, investor, CategorySettlement, nil,
		"investor", investor,
		"units", units,
	)
}

// OnTokensDelivered implements plugin.OnTokensDelivered.
func (e *Extension) OnTokensDelivered(ctx context.Context, investor string, tokens int64) error {
	return e.record(ctx, ActionTokensDelivered, SeverityInfo, OutcomeSuccess,
		ResourceDelivery, investor, CategorySettlement, nil,
		"investor", investor,
		"tokens", tokens,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
