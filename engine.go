package sto

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/cap"
	"github.com/xraph/sto/delivery"
	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/fees"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/plugin"
	"github.com/xraph/sto/pricing"
	"github.com/xraph/sto/refund"
	"github.com/xraph/sto/store"
	"github.com/xraph/sto/types"
)

// Engine is the offering controller: it orchestrates purchases, drives the
// close/finalize transition, and fronts the escrow vault and the two claim
// ledgers.
//
// Every public mutating operation runs under one mutex, giving the
// serialized-transaction model the settlement components assume. The vault
// and ledgers additionally carry reentry guards against callbacks from the
// asset collaborators.
type Engine struct {
	mu sync.Mutex

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	offeringID id.OfferingID

	// Collaborators
	mover        asset.Mover
	issuer       asset.Issuer
	pricing      pricing.Strategy
	fees         fees.Schedule
	eligibility  Eligibility
	capabilities CapabilityResolver

	// Settlement components, wired at configuration time
	configured bool
	created    time.Time
	terms      offering.Terms
	tracker    *cap.Tracker
	vault      *escrow.Vault
	refunds    *refund.Ledger
	minting    *delivery.Ledger

	// Milestone dedupe for the soft-cap journal event
	softCapAnnounced bool
}

// New creates an Engine. Terms may be zero-valued to defer configuration to
// a later Configure call (or to a persisted snapshot loaded by Start);
// non-zero terms are validated and wired immediately.
func New(st store.Store, terms offering.Terms, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:       st,
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		clock:       time.Now,
		offeringID:  id.NewOfferingID(),
		eligibility: allowAll{},
	}
	e.capabilities = denyAll{}

	for _, opt := range opts {
		opt(e)
	}

	if terms.Configured() {
		if err := e.wire(terms); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Configure sets the offering terms, exactly once. Requires the operator
// capability; engines constructed with terms are configured at birth and
// reject a second configuration.
func (e *Engine) Configure(ctx context.Context, caller types.Address, terms offering.Terms) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.configured {
		return ErrAlreadyConfigured
	}
	if !e.capabilities.HasCapability(caller, RoleOperator) {
		return ErrUnauthorized
	}
	if err := e.wire(terms); err != nil {
		return err
	}

	e.persistOfferingLocked(ctx)
	entry := journal.New(e.offeringID, journal.KindConfigured, e.clock())
	entry.Tokens = terms.HardCap
	e.appendEventLocked(ctx, entry)
	e.plugins.EmitOfferingConfigured(ctx, terms)

	e.logger.Info("offering configured",
		"offering_id", e.offeringID.String(),
		"hard_cap", terms.HardCap.String(),
		"soft_cap", terms.SoftCap.String(),
	)
	return nil
}

// wire validates terms and builds the settlement components. The claim
// ledgers are constructed first and late-bound to the vault, so activation
// authority flows one way: vault to ledger.
func (e *Engine) wire(terms offering.Terms) error {
	if err := terms.Validate(); err != nil {
		return err
	}
	if e.mover == nil || e.issuer == nil {
		return ErrMissingAssets
	}
	if e.pricing == nil {
		p, err := pricing.NewFixedRate(terms.PricePerToken, terms.SecurityAsset, terms.MinInvestment)
		if err != nil {
			return err
		}
		e.pricing = p
	}

	e.refunds = refund.NewLedger()
	e.minting = delivery.NewLedger(e.issuer, e.logger)
	e.vault = escrow.NewVault(escrow.Config{
		Account:         terms.EscrowAccount,
		Controller:      terms.ControllerAccount,
		Receiver:        terms.FundsReceiver,
		InvestmentAsset: terms.InvestmentAsset,
		SecurityAsset:   terms.SecurityAsset,
		Mover:           e.mover,
		Refunds:         e.refunds,
		Minting:         e.minting,
	})
	e.refunds.Bind(e.vault, e.vault.Account())
	e.minting.Bind(e.vault, e.vault.Account())
	e.tracker = cap.NewTracker(terms.HardCap, terms.SoftCap)

	e.terms = terms
	e.created = e.clock()
	e.configured = true
	return nil
}

// Start migrates the store, restores any persisted offering state, and
// initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}
	if err := e.restore(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("offering engine started",
		"offering_id", e.offeringID.String(),
		"configured", e.configured,
	)
	return nil
}

// Stop shuts down the engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)
	return e.store.Close()
}

// restore reloads the offering snapshot and investor records for this
// offering ID, rebuilding the tracker, vault, and ledger latches.
func (e *Engine) restore(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.store.GetOffering(ctx, e.offeringID)
	if err != nil {
		if errors.Is(err, ErrOfferingNotFound) {
			return nil
		}
		return err
	}

	if !e.configured {
		if err := e.wire(snap.Terms); err != nil {
			return err
		}
	}
	e.created = snap.CreatedAt

	records, err := e.store.ListInvestors(ctx, e.offeringID)
	if err != nil {
		return err
	}

	e.tracker = cap.Restore(e.terms.HardCap, e.terms.SoftCap, snap.TokensSold)
	e.vault.Restore(escrow.State{
		Records:            records,
		Closed:             snap.Closed,
		Finalized:          snap.Finalized,
		SoftCapAtFinalize:  snap.SoftCapAtFinalize,
		RefundsInitialized: snap.RefundsInitialized,
		MintingInitialized: snap.MintingInitialized,
		FundsReleased:      snap.FundsReleased,
	})
	e.refunds.Restore(snap.RefundsInitialized)
	e.minting.Restore(snap.MintingInitialized)
	e.softCapAnnounced = e.tracker.IsSoftCapReached()

	e.logger.Info("offering state restored",
		"offering_id", e.offeringID.String(),
		"investors", len(records),
		"tokens_sold", snap.TokensSold.String(),
		"status", string(snap.Status()),
	)
	return nil
}

// ──────────────────────────────────────────────────
// Persistence write-through
// ──────────────────────────────────────────────────

// The engine's in-memory state is authoritative; store writes are a
// write-through for restart recovery and never gate settlement. Failures
// are logged, not returned.

func (e *Engine) snapshotLocked() *offering.Snapshot {
	return &offering.Snapshot{
		Entity:             types.Entity{CreatedAt: e.created, UpdatedAt: e.clock()},
		ID:                 e.offeringID,
		Terms:              e.terms,
		TokensSold:         e.tracker.TokensSold(),
		FundsRaised:        e.vault.TotalInvested(),
		Closed:             e.vault.IsClosed(),
		Finalized:          e.vault.IsFinalized(),
		SoftCapAtFinalize:  e.vault.IsSoftCapReached(),
		RefundsInitialized: e.vault.RefundsInitialized(),
		MintingInitialized: e.vault.MintingInitialized(),
		FundsReleased:      e.vault.FundsReleased(),
	}
}

func (e *Engine) persistOfferingLocked(ctx context.Context) {
	if err := e.store.SaveOffering(ctx, e.snapshotLocked()); err != nil {
		e.logger.Warn("persist offering snapshot failed",
			"offering_id", e.offeringID.String(),
			"error", err,
		)
	}
}

func (e *Engine) persistInvestorLocked(ctx context.Context, addr types.Address) {
	rec := e.vault.Record(addr)
	if rec == nil {
		return
	}
	if err := e.store.UpsertInvestor(ctx, e.offeringID, rec); err != nil {
		e.logger.Warn("persist investor record failed",
			"investor", addr.String(),
			"error", err,
		)
	}
}

func (e *Engine) appendEventLocked(ctx context.Context, entry *journal.Entry) {
	if err := e.store.AppendEvent(ctx, entry); err != nil {
		e.logger.Warn("append journal event failed",
			"kind", string(entry.Kind),
			"error", err,
		)
	}
}

// ──────────────────────────────────────────────────
// Read accessors
// ──────────────────────────────────────────────────

// ID returns the offering identity.
func (e *Engine) ID() id.OfferingID { return e.offeringID }

// Terms returns the configured offering terms.
func (e *Engine) Terms() offering.Terms {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terms
}

// TokensSold returns the cumulative tokens sold.
func (e *Engine) TokensSold() types.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return types.Amount{}
	}
	return e.tracker.TokensSold()
}

// FundsRaised returns the cumulative net funds escrowed.
func (e *Engine) FundsRaised() types.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return types.Amount{}
	}
	return e.vault.TotalInvested()
}

// Investors returns the investor registry in first-purchase order.
func (e *Engine) Investors() []types.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return nil
	}
	return e.vault.Investors()
}

// InvestmentOf returns the net amount escrowed for an investor.
func (e *Engine) InvestmentOf(addr types.Address) types.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return types.Amount{}
	}
	return e.vault.Investment(addr)
}

// AllocationOf returns the token allocation recorded for an investor.
func (e *Engine) AllocationOf(addr types.Address) types.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return types.Amount{}
	}
	return e.vault.Allocation(addr)
}

// IsClosed reports whether the purchase window has closed.
func (e *Engine) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configured && e.vault.IsClosed()
}

// IsFinalized reports whether the outcome has been frozen.
func (e *Engine) IsFinalized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configured && e.vault.IsFinalized()
}

// IsSoftCapReached reports the outcome frozen at finalize time; before
// finalization it reports the live tracker state.
func (e *Engine) IsSoftCapReached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return false
	}
	if e.vault.IsFinalized() {
		return e.vault.IsSoftCapReached()
	}
	return e.tracker.IsSoftCapReached()
}

// HardCapReached reports whether tokens sold has reached the hard cap.
func (e *Engine) HardCapReached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configured && e.tracker.HardCapReached()
}

// Status derives the offering lifecycle status.
func (e *Engine) Status() offering.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return offering.StatusOpen
	}
	snap := e.snapshotLocked()
	return snap.Status()
}

// Journal queries the persisted settlement events for this offering.
func (e *Engine) Journal(ctx context.Context, opts journal.ListOpts) ([]*journal.Entry, error) {
	return e.store.ListEvents(ctx, e.offeringID, opts)
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }
