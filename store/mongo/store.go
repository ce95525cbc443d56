// Package mongo implements the offering store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/sto"
	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	stostore "github.com/xraph/sto/store"
	"github.com/xraph/sto/types"
)

// Collection name constants.
const (
	colOfferings = "sto_offerings"
	colInvestors = "sto_investors"
	colEvents    = "sto_events"
)

// compile-time interface check
var _ stostore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all offering collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("sto/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Offering Store ====================

func (s *Store) SaveOffering(ctx context.Context, snap *offering.Snapshot) error {
	m := toOfferingModel(snap)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sto/mongo: save offering: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("sto/mongo: save offering: %w", err)
		}
	}
	return nil
}

func (s *Store) GetOffering(ctx context.Context, offeringID id.OfferingID) (*offering.Snapshot, error) {
	var m offeringModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": offeringID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, sto.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("sto/mongo: get offering: %w", err)
	}
	return fromOfferingModel(&m)
}

// ==================== Investor Store ====================

func (s *Store) UpsertInvestor(ctx context.Context, offeringID id.OfferingID, rec *escrow.InvestorRecord) error {
	m := toInvestorModel(offeringID, rec)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sto/mongo: upsert investor: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("sto/mongo: upsert investor: %w", err)
		}
	}
	return nil
}

func (s *Store) GetInvestor(ctx context.Context, offeringID id.OfferingID, addr types.Address) (*escrow.InvestorRecord, error) {
	var m investorModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": investorKey(offeringID, addr)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, sto.ErrInvestorNotFound
		}
		return nil, fmt.Errorf("sto/mongo: get investor: %w", err)
	}
	return fromInvestorModel(&m), nil
}

func (s *Store) ListInvestors(ctx context.Context, offeringID id.OfferingID) ([]*escrow.InvestorRecord, error) {
	var models []investorModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"offering_id": offeringID.String()}).
		Sort(bson.D{{Key: "position", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sto/mongo: list investors: %w", err)
	}

	result := make([]*escrow.InvestorRecord, len(models))
	for i := range models {
		result[i] = fromInvestorModel(&models[i])
	}
	return result, nil
}

// ==================== Journal Store ====================

func (s *Store) AppendEvent(ctx context.Context, entry *journal.Entry) error {
	m := toEventModel(entry)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sto/mongo: append event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, offeringID id.OfferingID, opts journal.ListOpts) ([]*journal.Entry, error) {
	var models []eventModel

	filter := bson.M{"offering_id": offeringID.String()}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if !opts.Investor.IsZero() {
		filter["investor"] = opts.Investor.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sto/mongo: list events: %w", err)
	}

	result := make([]*journal.Entry, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all offering collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colOfferings: {
			{Keys: bson.D{{Key: "closed", Value: 1}, {Key: "finalized", Value: 1}}},
		},
		colInvestors: {
			{
				Keys:    bson.D{{Key: "offering_id", Value: 1}, {Key: "address", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "offering_id", Value: 1}, {Key: "position", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "offering_id", Value: 1}, {Key: "at", Value: 1}}},
			{Keys: bson.D{{Key: "offering_id", Value: 1}, {Key: "kind", Value: 1}}},
			{Keys: bson.D{{Key: "offering_id", Value: 1}, {Key: "investor", Value: 1}}},
		},
	}
}
