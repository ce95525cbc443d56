// Package sqlite implements the offering store on SQLite via Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/sto"
	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	stostore "github.com/xraph/sto/store"
	"github.com/xraph/sto/types"
)

// compile-time interface check
var _ stostore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("sto/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("sto/sqlite: migration failed: %w", err)
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

	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		_, err = s.sdb.NewInsert(m).Exec(ctx)
	}
	return err
}

func (s *Store) GetOffering(ctx context.Context, offeringID id.OfferingID) (*offering.Snapshot, error) {
	m := new(offeringModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", offeringID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, sto.ErrOfferingNotFound
		}
		return nil, err
	}
	return fromOfferingModel(m)
}

// ==================== Investor Store ====================

func (s *Store) UpsertInvestor(ctx context.Context, offeringID id.OfferingID, rec *escrow.InvestorRecord) error {
	m := toInvestorModel(offeringID, rec)

	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		_, err = s.sdb.NewInsert(m).Exec(ctx)
	}
	return err
}

func (s *Store) GetInvestor(ctx context.Context, offeringID id.OfferingID, addr types.Address) (*escrow.InvestorRecord, error) {
	m := new(investorModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", investorKey(offeringID, addr)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, sto.ErrInvestorNotFound
		}
		return nil, err
	}
	return fromInvestorModel(m), nil
}

func (s *Store) ListInvestors(ctx context.Context, offeringID id.OfferingID) ([]*escrow.InvestorRecord, error) {
	var models []investorModel
	err := s.sdb.NewSelect(&models).
		Where("offering_id = ?", offeringID.String()).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListEvents(ctx context.Context, offeringID id.OfferingID, opts journal.ListOpts) ([]*journal.Entry, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models).Where("offering_id = ?", offeringID.String())

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if !opts.Investor.IsZero() {
		q = q.Where("investor = ?", opts.Investor.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
