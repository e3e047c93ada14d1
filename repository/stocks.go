package repository

import (
	"context"
	"fmt"

	"discount-screener/models"
	"discount-screener/observability"

	"github.com/jackc/pgx/v5"
)

// UpsertStock inserts or updates a row in the stock master. Descriptive
// fields are refreshed on conflict; created_at keeps its original value.
// Empty descriptive fields are stored as NULL.
func (r *Repository) UpsertStock(ctx context.Context, stock *models.Stock) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("upsert", "stocks")

	_, err := r.db.Exec(ctx, `
		INSERT INTO stocks (symbol, company_name, industry, isin)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (symbol) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			industry = EXCLUDED.industry,
			isin = EXCLUDED.isin
	`, stock.Symbol, stock.CompanyName, stock.Industry, stock.ISIN)

	if err != nil {
		metrics.RecordDBError("upsert", "stocks")
		return &WriteError{Table: "stocks", Item: stock.Symbol, Err: err}
	}

	return nil
}

// GetStock returns a single stock by symbol, or nil when unknown
func (r *Repository) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "stocks")

	var s models.Stock
	err := r.db.QueryRow(ctx, `
		SELECT symbol, COALESCE(company_name, ''), COALESCE(industry, ''), COALESCE(isin, ''), created_at
		FROM stocks WHERE symbol = $1
	`, symbol).Scan(&s.Symbol, &s.CompanyName, &s.Industry, &s.ISIN, &s.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "stocks")
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}

	return &s, nil
}

// GetAllSymbols returns every symbol in the stock master, ordered
func (r *Repository) GetAllSymbols(ctx context.Context) ([]string, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "stocks")

	rows, err := r.db.Query(ctx, `SELECT symbol FROM stocks ORDER BY symbol`)
	if err != nil {
		metrics.RecordDBError("select", "stocks")
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

// GetStocks returns the full stock master, ordered by symbol
func (r *Repository) GetStocks(ctx context.Context) ([]models.Stock, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "stocks")

	rows, err := r.db.Query(ctx, `
		SELECT symbol, COALESCE(company_name, ''), COALESCE(industry, ''), COALESCE(isin, ''), created_at
		FROM stocks
		ORDER BY symbol
	`)
	if err != nil {
		metrics.RecordDBError("select", "stocks")
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []models.Stock
	for rows.Next() {
		var s models.Stock
		if err := rows.Scan(&s.Symbol, &s.CompanyName, &s.Industry, &s.ISIN, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}

	return stocks, nil
}
