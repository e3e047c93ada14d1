package repository

import (
	"context"
	"fmt"

	"discount-screener/models"
	"discount-screener/observability"

	"github.com/jackc/pgx/v5"
)

// UpsertReference inserts or updates the valuation baseline for a symbol.
// At most one row exists per symbol.
func (r *Repository) UpsertReference(ctx context.Context, ref *models.ValuationReference) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("upsert", "valuation_reference")

	_, err := r.db.Exec(ctx, `
		INSERT INTO valuation_reference (symbol, avg_5y_pe, discount_threshold_pct, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol) DO UPDATE SET
			avg_5y_pe = EXCLUDED.avg_5y_pe,
			discount_threshold_pct = EXCLUDED.discount_threshold_pct,
			last_updated = EXCLUDED.last_updated
	`, ref.Symbol, ref.Avg5yPE, ref.DiscountThresholdPct, ref.LastUpdated)

	if err != nil {
		metrics.RecordDBError("upsert", "valuation_reference")
		return &WriteError{Table: "valuation_reference", Item: ref.Symbol, Err: err}
	}

	return nil
}

// GetReference returns the valuation baseline for a symbol, or nil when absent
func (r *Repository) GetReference(ctx context.Context, symbol string) (*models.ValuationReference, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "valuation_reference")

	var ref models.ValuationReference
	err := r.db.QueryRow(ctx, `
		SELECT symbol, avg_5y_pe, discount_threshold_pct, last_updated, created_at
		FROM valuation_reference WHERE symbol = $1
	`, symbol).Scan(&ref.Symbol, &ref.Avg5yPE, &ref.DiscountThresholdPct, &ref.LastUpdated, &ref.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "valuation_reference")
		return nil, fmt.Errorf("failed to query reference: %w", err)
	}

	return &ref, nil
}

// GetReferenceRows returns every symbol carrying a usable baseline, joined
// with the industry from the stock master. Rows without a computed average
// are excluded.
func (r *Repository) GetReferenceRows(ctx context.Context) ([]models.ReferenceRow, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "valuation_reference")

	rows, err := r.db.Query(ctx, `
		SELECT vr.symbol, vr.avg_5y_pe, vr.discount_threshold_pct, COALESCE(s.industry, '')
		FROM valuation_reference vr
		JOIN stocks s ON s.symbol = vr.symbol
		WHERE vr.avg_5y_pe IS NOT NULL
		ORDER BY vr.symbol
	`)
	if err != nil {
		metrics.RecordDBError("select", "valuation_reference")
		return nil, fmt.Errorf("failed to query reference rows: %w", err)
	}
	defer rows.Close()

	var refs []models.ReferenceRow
	for rows.Next() {
		var ref models.ReferenceRow
		if err := rows.Scan(&ref.Symbol, &ref.Avg5yPE, &ref.DiscountThresholdPct, &ref.Industry); err != nil {
			return nil, fmt.Errorf("failed to scan reference row: %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, nil
}
