package repository

import (
	"context"
	"fmt"

	"discount-screener/models"
	"discount-screener/observability"
)

// InsertSnapshot appends one valuation snapshot row. Snapshots are never
// updated; a repeated run date simply adds more rows.
func (r *Repository) InsertSnapshot(ctx context.Context, snap *models.ValuationSnapshot) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "valuation_snapshots")

	_, err := r.db.Exec(ctx, `
		INSERT INTO valuation_snapshots
			(id, symbol, snapshot_date, current_price, current_pe,
			 discount_vs_5y_avg, discount_vs_industry, is_discounted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, snap.ID, snap.Symbol, snap.SnapshotDate, snap.CurrentPrice, snap.CurrentPE,
		snap.DiscountVs5yAvg, snap.DiscountVsIndustry, snap.IsDiscounted, snap.CreatedAt)

	if err != nil {
		metrics.RecordDBError("insert", "valuation_snapshots")
		return &WriteError{Table: "valuation_snapshots", Item: snap.Symbol, Err: err}
	}

	return nil
}

// GetSnapshots returns the snapshot history for a symbol, newest first
func (r *Repository) GetSnapshots(ctx context.Context, symbol string, limit int) ([]models.ValuationSnapshot, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "valuation_snapshots")

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, symbol, snapshot_date, current_price, current_pe,
		       discount_vs_5y_avg, discount_vs_industry, is_discounted, created_at
		FROM valuation_snapshots
		WHERE symbol = $1
		ORDER BY snapshot_date DESC, created_at DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		metrics.RecordDBError("select", "valuation_snapshots")
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// RefreshDiscountedView rebuilds mv_discounted_latest. Call after every
// snapshot-generation run; between refreshes the view is allowed to be stale.
func (r *Repository) RefreshDiscountedView(ctx context.Context) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("refresh", "mv_discounted_latest")

	if _, err := r.db.Exec(ctx, `REFRESH MATERIALIZED VIEW mv_discounted_latest`); err != nil {
		metrics.RecordDBError("refresh", "mv_discounted_latest")
		return &WriteError{Table: "mv_discounted_latest", Item: "refresh", Err: err}
	}

	return nil
}

// GetDiscountedLatest returns the discounted rows of the latest run from the
// materialized view.
func (r *Repository) GetDiscountedLatest(ctx context.Context) ([]models.ValuationSnapshot, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "mv_discounted_latest")

	rows, err := r.db.Query(ctx, `
		SELECT id, symbol, snapshot_date, current_price, current_pe,
		       discount_vs_5y_avg, discount_vs_industry, is_discounted, created_at
		FROM mv_discounted_latest
		ORDER BY discount_vs_5y_avg DESC
	`)
	if err != nil {
		metrics.RecordDBError("select", "mv_discounted_latest")
		return nil, fmt.Errorf("failed to query discounted view: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

type snapshotRows interface {
	Next() bool
	Scan(dest ...any) error
}

func scanSnapshots(rows snapshotRows) ([]models.ValuationSnapshot, error) {
	var snapshots []models.ValuationSnapshot
	for rows.Next() {
		var s models.ValuationSnapshot
		err := rows.Scan(&s.ID, &s.Symbol, &s.SnapshotDate, &s.CurrentPrice, &s.CurrentPE,
			&s.DiscountVs5yAvg, &s.DiscountVsIndustry, &s.IsDiscounted, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}
