// Package sto provides a composable escrow and settlement engine for capped,
// time-boxed security token offerings.
//
// The engine is designed as a library, not a service. Import it directly
// into your Go application and bridge the asset collaborators to whatever
// holds the real balances. It provides:
//
//   - Escrowed fund custody with a one-way Open → Closed → Finalized state machine
//   - Hard-cap enforcement with truncate-and-return at the boundary
//   - Deterministic outcome routing: token delivery on soft cap, refunds below it
//   - One-shot refund and delivery claims that can never double-pay
//   - Pluggable pricing, fee, eligibility, and capability collaborators
//   - Persistence write-through with memory, SQLite, PostgreSQL, and MongoDB stores
//   - Lifecycle plugin hooks for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store and asset bridges:
//
//	import (
//	    "github.com/xraph/sto"
//	    "github.com/xraph/sto/asset/memory"
//	    "github.com/xraph/sto/offering"
//	    storemem "github.com/xraph/sto/store/memory"
//	)
//
//	funds := memory.NewBook("usdc")
//	tokens := memory.NewBook("acme-st")
//
//	engine, err := sto.New(storemem.New(), offering.Terms{
//	    StartTime:         start,
//	    EndTime:           end,
//	    HardCap:           sto.NewAmount(100_000, "acme-st"),
//	    SoftCap:           sto.NewAmount(10_000, "acme-st"),
//	    PricePerToken:     sto.NewAmount(10, "usdc"),
//	    InvestmentAsset:   "usdc",
//	    SecurityAsset:     "acme-st",
//	    FundsReceiver:     sto.Addr("treasury"),
//	    ControllerAccount: sto.Addr("controller"),
//	    EscrowAccount:     sto.Addr("escrow"),
//	}, sto.WithAssets(funds, tokens))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Core Concepts
//
// The offering Terms fix the purchase window, the cap thresholds, and the
// settlement accounts; configuration happens exactly once. Purchases pull
// the invested amount from the caller, price it into whole tokens, and
// escrow the cost in the vault:
//
//	receipt, err := engine.Purchase(ctx, investor, investor, sto.NewAmount(5_000, "usdc"))
//
// When the end time passes or the hard cap is reached, the offering closes
// and finalizes. Finalization freezes the outcome and activates exactly one
// claim ledger:
//
//   - Soft cap reached: raised funds move to the receiver, token delivery is
//     pushed to every registered investor, and ClaimTokens serves as the
//     pull fallback.
//   - Soft cap missed: funds stay in escrow and each investor reclaims their
//     recorded investment once via ClaimRefund.
//
// Reaching the hard cap mid-purchase auto-triggers close and finalize;
// otherwise an operator drives the transition:
//
//	err := engine.Finalize(ctx, operator)
//
// # Collaborators
//
// The engine never owns balances. An asset.Mover moves the investment asset
// between accounts, and an asset.Issuer mints the security asset; hosts
// bridge both to their ledger of record. Pricing, fees, eligibility, and
// capabilities are likewise injected:
//
//	engine, err := sto.New(st, terms,
//	    sto.WithAssets(mover, issuer),
//	    sto.WithFees(flatFee),
//	    sto.WithEligibility(kycAllowlist),
//	    sto.WithCapabilities(sto.StaticCapabilities{operator: {sto.RoleOperator}}),
//	)
//
// # Persistence
//
// In-memory state is authoritative; the store is a write-through used to
// restore the offering after a restart and to serve the settlement journal.
// All four backends share the store.Store interface, so swapping them is a
// constructor change.
package sto
