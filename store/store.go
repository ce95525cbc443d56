// Package store defines the unified storage interface for offering state.
//
// The engine keeps authoritative state in memory and writes through to a
// Store after each committed mutation; on startup it restores from the
// Store. Hosts choose a backend (memory, sqlite, postgres, mongo) or
// implement their own.
package store

import (
	"context"

	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/types"
)

// Store is the unified storage interface for all offering entities.
type Store interface {
	// Offering snapshot methods
	SaveOffering(ctx context.Context, snap *offering.Snapshot) error
	GetOffering(ctx context.Context, offeringID id.OfferingID) (*offering.Snapshot, error)

	// Investor record methods
	UpsertInvestor(ctx context.Context, offeringID id.OfferingID, rec *escrow.InvestorRecord) error
	GetInvestor(ctx context.Context, offeringID id.OfferingID, addr types.Address) (*escrow.InvestorRecord, error)
	ListInvestors(ctx context.Context, offeringID id.OfferingID) ([]*escrow.InvestorRecord, error)

	// Journal methods
	AppendEvent(ctx context.Context, entry *journal.Entry) error
	ListEvents(ctx context.Context, offeringID id.OfferingID, opts journal.ListOpts) ([]*journal.Entry, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
