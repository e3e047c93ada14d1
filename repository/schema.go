package repository

import (
	"context"
	"fmt"

	"discount-screener/observability"
)

// schemaStatements create the screener tables, indexes and the discounted
// view. Every statement is idempotent so EnsureSchema can run on every boot.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stocks (
		symbol       TEXT PRIMARY KEY,
		company_name TEXT,
		industry     TEXT,
		isin         TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS valuation_reference (
		symbol                 TEXT PRIMARY KEY REFERENCES stocks(symbol) ON DELETE CASCADE,
		avg_5y_pe              NUMERIC(10,2),
		discount_threshold_pct NUMERIC(5,2) NOT NULL DEFAULT 30.00,
		last_updated           DATE,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS valuation_snapshots (
		id                   UUID PRIMARY KEY,
		symbol               TEXT NOT NULL REFERENCES stocks(symbol) ON DELETE CASCADE,
		snapshot_date        DATE NOT NULL,
		current_price        NUMERIC(14,2),
		current_pe           NUMERIC(10,2),
		discount_vs_5y_avg   NUMERIC(8,2),
		discount_vs_industry NUMERIC(8,2),
		is_discounted        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_valuation_snapshots_symbol_date
		ON valuation_snapshots (symbol, snapshot_date)`,
	`CREATE INDEX IF NOT EXISTS idx_valuation_snapshots_is_discounted
		ON valuation_snapshots (is_discounted)`,
	`CREATE MATERIALIZED VIEW IF NOT EXISTS mv_discounted_latest AS
		SELECT id, symbol, snapshot_date, current_price, current_pe,
		       discount_vs_5y_avg, discount_vs_industry, is_discounted, created_at
		FROM valuation_snapshots
		WHERE is_discounted
		  AND snapshot_date = (SELECT MAX(snapshot_date) FROM valuation_snapshots)`,
}

// EnsureSchema creates all tables, indexes and views if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.checkDB(); err != nil {
		return err
	}

	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	observability.Info("database schema ensured")
	return nil
}
