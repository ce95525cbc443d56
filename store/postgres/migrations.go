package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the offering store (PostgreSQL).
var Migrations = migrate.NewGroup("sto")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_sto_offerings",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sto_offerings (
    id                   TEXT PRIMARY KEY,
    terms                JSONB NOT NULL DEFAULT '{}',
    tokens_sold          BIGINT NOT NULL DEFAULT 0,
    token_asset          TEXT NOT NULL DEFAULT '',
    funds_raised         BIGINT NOT NULL DEFAULT 0,
    funding_asset        TEXT NOT NULL DEFAULT '',
    closed               BOOLEAN NOT NULL DEFAULT FALSE,
    finalized            BOOLEAN NOT NULL DEFAULT FALSE,
    soft_cap_at_finalize BOOLEAN NOT NULL DEFAULT FALSE,
    refunds_initialized  BOOLEAN NOT NULL DEFAULT FALSE,
    minting_initialized  BOOLEAN NOT NULL DEFAULT FALSE,
    funds_released       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sto_offerings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sto_investors",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sto_investors (
    id               TEXT PRIMARY KEY,
    offering_id      TEXT NOT NULL DEFAULT '',
    address          TEXT NOT NULL DEFAULT '',
    invested         BIGINT NOT NULL DEFAULT 0,
    invested_asset   TEXT NOT NULL DEFAULT '',
    allocation       BIGINT NOT NULL DEFAULT 0,
    allocation_asset TEXT NOT NULL DEFAULT '',
    position         INTEGER NOT NULL DEFAULT 0,
    refund_claimed   BOOLEAN NOT NULL DEFAULT FALSE,
    tokens_claimed   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sto_investors_offering_addr ON sto_investors (offering_id, address);
CREATE INDEX IF NOT EXISTS idx_sto_investors_position ON sto_investors (offering_id, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sto_investors`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sto_events",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sto_events (
    id             TEXT PRIMARY KEY,
    offering_id    TEXT NOT NULL DEFAULT '',
    kind           TEXT NOT NULL DEFAULT '',
    investor       TEXT NOT NULL DEFAULT '',
    invested_units BIGINT NOT NULL DEFAULT 0,
    invested_asset TEXT NOT NULL DEFAULT '',
    token_units    BIGINT NOT NULL DEFAULT 0,
    token_asset    TEXT NOT NULL DEFAULT '',
    note           TEXT NOT NULL DEFAULT '',
    at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sto_events_offering ON sto_events (offering_id, at);
CREATE INDEX IF NOT EXISTS idx_sto_events_kind ON sto_events (offering_id, kind);
CREATE INDEX IF NOT EXISTS idx_sto_events_investor ON sto_events (offering_id, investor);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sto_events`)
				return err
			},
		},
	)
}
