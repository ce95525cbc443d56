// Package memory provides an in-memory Store for tests and embedded use.
// State does not survive process restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/sto"
	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/store"
	"github.com/xraph/sto/types"
)

type Store struct {
	mu sync.RWMutex

	// Offering snapshots
	offerings map[string]*offering.Snapshot

	// Investor records, keyed by offering then address
	investors map[string]map[types.Address]*escrow.InvestorRecord

	// Settlement journal, append order preserved
	events []*journal.Entry
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		offerings: make(map[string]*offering.Snapshot),
		investors: make(map[string]map[types.Address]*escrow.InvestorRecord),
		events:    make([]*journal.Entry, 0),
	}
}

// Offering Store implementation

func (s *Store) SaveOffering(_ context.Context, snap *offering.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *snap
	s.offerings[snap.ID.String()] = &cp
	return nil
}

func (s *Store) GetOffering(_ context.Context, offeringID id.OfferingID) (*offering.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if snap, ok := s.offerings[offeringID.String()]; ok {
		cp := *snap
		return &cp, nil
	}
	return nil, sto.ErrOfferingNotFound
}

// Investor Store implementation

func (s *Store) UpsertInvestor(_ context.Context, offeringID id.OfferingID, rec *escrow.InvestorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := offeringID.String()
	if _, ok := s.investors[key]; !ok {
		s.investors[key] = make(map[types.Address]*escrow.InvestorRecord)
	}
	s.investors[key][rec.Address] = rec.Clone()
	return nil
}

func (s *Store) GetInvestor(_ context.Context, offeringID id.OfferingID, addr types.Address) (*escrow.InvestorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.investors[offeringID.String()][addr]; ok {
		return rec.Clone(), nil
	}
	return nil, sto.ErrInvestorNotFound
}

func (s *Store) ListInvestors(_ context.Context, offeringID id.OfferingID) ([]*escrow.InvestorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*escrow.InvestorRecord, 0, len(s.investors[offeringID.String()]))
	for _, rec := range s.investors[offeringID.String()] {
		recs = append(recs, rec.Clone())
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Position < recs[j].Position })
	return recs, nil
}

// Journal Store implementation

func (s *Store) AppendEvent(_ context.Context, entry *journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.events = append(s.events, &cp)
	return nil
}

func (s *Store) ListEvents(_ context.Context, offeringID id.OfferingID, opts journal.ListOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*journal.Entry, 0)
	for _, e := range s.events {
		if e.OfferingID != offeringID {
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if !opts.Investor.IsZero() && e.Investor != opts.Investor {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []*journal.Entry{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }
