package repository

import (
	"context"

	"discount-screener/models"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// Stock master
	UpsertStock(ctx context.Context, stock *models.Stock) error
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
	GetAllSymbols(ctx context.Context) ([]string, error)
	GetStocks(ctx context.Context) ([]models.Stock, error)

	// Valuation references
	UpsertReference(ctx context.Context, ref *models.ValuationReference) error
	GetReference(ctx context.Context, symbol string) (*models.ValuationReference, error)
	GetReferenceRows(ctx context.Context) ([]models.ReferenceRow, error)

	// Valuation snapshots
	InsertSnapshot(ctx context.Context, snap *models.ValuationSnapshot) error
	GetSnapshots(ctx context.Context, symbol string, limit int) ([]models.ValuationSnapshot, error)
	RefreshDiscountedView(ctx context.Context) error
	GetDiscountedLatest(ctx context.Context) ([]models.ValuationSnapshot, error)
}

// Compile-time interface verification
var _ RepositoryInterface = (*Repository)(nil)
